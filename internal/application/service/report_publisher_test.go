package service

import (
	"context"
	"errors"
	"testing"

	"github.com/garyjia/timesheet-approval/internal/application/port"
	"github.com/garyjia/timesheet-approval/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRenderer struct {
	err error
}

func (r stubRenderer) Render(report *entity.ApprovalReport) ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}
	return []byte("xlsx:" + report.RunID), nil
}

type memReportStore struct {
	files map[string][]byte
}

func (s *memReportStore) Save(ctx context.Context, name string, content []byte) (string, error) {
	if s.files == nil {
		s.files = make(map[string][]byte)
	}
	s.files[name] = content
	return "mem://" + name, nil
}

func sampleReport(dryRun bool) *entity.ApprovalReport {
	return &entity.ApprovalReport{
		RunID:  "0f8fad5b-d9cb-469f-a165-70867728950e",
		DryRun: dryRun,
		Now:    localTime("2025-12-15 09:00"),
	}
}

func TestReportFileName(t *testing.T) {
	assert.Equal(t, "auto-approval-20251215-0900-0f8fad5b.xlsx", ReportFileName(sampleReport(false)))
	assert.Equal(t, "auto-approval-preview-20251215-0900-0f8fad5b.xlsx", ReportFileName(sampleReport(true)))
}

func TestReportPublisher_Publish(t *testing.T) {
	store := &memReportStore{}
	first, second := &recordingNotifier{}, &recordingNotifier{}
	p := NewReportPublisher(stubRenderer{}, store, []port.Notifier{first, second}, nil)

	location, err := p.Publish(context.Background(), sampleReport(false))
	require.NoError(t, err)
	assert.Equal(t, "mem://auto-approval-20251215-0900-0f8fad5b.xlsx", location)
	assert.Equal(t, []byte("xlsx:0f8fad5b-d9cb-469f-a165-70867728950e"), store.files["auto-approval-20251215-0900-0f8fad5b.xlsx"])
	assert.Len(t, first.reports, 1)
	assert.Len(t, second.reports, 1)
}

func TestReportPublisher_FailuresDoNotStopDelivery(t *testing.T) {
	store := &memReportStore{}
	failing := &recordingNotifier{err: errors.New("slack down")}
	ok := &recordingNotifier{}
	p := NewReportPublisher(stubRenderer{err: errors.New("bad sheet")}, store, []port.Notifier{failing, ok}, nil)

	location, err := p.Publish(context.Background(), sampleReport(true))
	require.Error(t, err)
	assert.Empty(t, location)
	assert.Contains(t, err.Error(), "bad sheet")
	assert.Contains(t, err.Error(), "slack down")
	assert.Empty(t, store.files)
	assert.Len(t, ok.reports, 1)
}
