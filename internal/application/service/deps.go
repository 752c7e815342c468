package service

import (
	"github.com/garyjia/timesheet-approval/internal/application/port"
	"github.com/garyjia/timesheet-approval/internal/domain/period"
)

// Deps groups the collaborators shared by the timesheet services
type Deps struct {
	TxManager  port.TransactionManager
	Timesheets port.TimesheetRepository
	Entries    port.EntryRepository
	Flags      port.FlagRepository
	EditLogs   port.EditLogRepository
	Provider   port.SchedulingProvider
	Calendar   *period.Calendar
	Clock      port.Clock
	Logger     Logger
}

func (d Deps) logger() Logger {
	if d.Logger == nil {
		return NopLogger()
	}
	return d.Logger
}

func (d Deps) flagService() FlagService {
	return NewFlagService(d.Flags, d.Clock, d.logger())
}

func (d Deps) editLogWriter() EditLogWriter {
	return NewEditLogWriter(d.EditLogs, d.Clock, d.logger())
}

func (d Deps) headerRefresher() *headerRefresher {
	return &headerRefresher{timesheetRepo: d.Timesheets, entryRepo: d.Entries, clock: d.Clock}
}
