package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/garyjia/timesheet-approval/internal/application/port"
	"github.com/garyjia/timesheet-approval/internal/domain/entity"
)

// ReportPublisher archives an approval report and sends it to notifiers
type ReportPublisher interface {
	// Publish returns where the workbook was stored, if anywhere
	Publish(ctx context.Context, report *entity.ApprovalReport) (string, error)
}

type reportPublisherImpl struct {
	renderer  port.ReportRenderer
	store     port.ReportStore
	notifiers []port.Notifier
	logger    Logger
}

// NewReportPublisher creates a new ReportPublisher. renderer and store may
// be nil to skip archiving.
func NewReportPublisher(renderer port.ReportRenderer, store port.ReportStore, notifiers []port.Notifier, logger Logger) ReportPublisher {
	if logger == nil {
		logger = NopLogger()
	}
	return &reportPublisherImpl{
		renderer:  renderer,
		store:     store,
		notifiers: notifiers,
		logger:    logger,
	}
}

func (p *reportPublisherImpl) Publish(ctx context.Context, report *entity.ApprovalReport) (string, error) {
	var errs []error
	var location string

	if p.renderer != nil && p.store != nil {
		content, err := p.renderer.Render(report)
		if err != nil {
			errs = append(errs, fmt.Errorf("render report: %w", err))
		} else if location, err = p.store.Save(ctx, ReportFileName(report), content); err != nil {
			errs = append(errs, fmt.Errorf("store report: %w", err))
		} else {
			p.logger.Info("Report archived", "run_id", report.RunID, "location", location)
		}
	}

	for _, n := range p.notifiers {
		if err := n.Notify(ctx, report); err != nil {
			p.logger.Error("Notifier failed", "run_id", report.RunID, "error", err)
			errs = append(errs, err)
		}
	}
	return location, errors.Join(errs...)
}

// ReportFileName names the workbook for a run
func ReportFileName(report *entity.ApprovalReport) string {
	kind := "auto-approval"
	if report.DryRun {
		kind = "auto-approval-preview"
	}
	id := report.RunID
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("%s-%s-%s.xlsx", kind, report.Now.Format("20060102-1504"), id)
}
