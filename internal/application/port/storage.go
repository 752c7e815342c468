package port

import "context"

// ReportStore archives rendered report files
type ReportStore interface {
	// Save stores content under name and returns where it was written
	Save(ctx context.Context, name string, content []byte) (string, error)
}
