package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/garyjia/timesheet-approval/internal/application/port"
	"go.uber.org/zap"
)

// LocalReportStore writes report files under a base directory
type LocalReportStore struct {
	baseDir string
	logger  *zap.Logger
}

var _ port.ReportStore = (*LocalReportStore)(nil)

// NewLocalReportStore creates a new LocalReportStore
func NewLocalReportStore(baseDir string, logger *zap.Logger) *LocalReportStore {
	return &LocalReportStore{
		baseDir: baseDir,
		logger:  logger,
	}
}

// Save writes content to name relative to the base directory and returns
// the full path
func (s *LocalReportStore) Save(ctx context.Context, name string, content []byte) (string, error) {
	fullPath := s.GetFullPath(name)

	if err := s.validatePath(fullPath); err != nil {
		return "", err
	}

	parentDir := filepath.Dir(fullPath)
	if err := os.MkdirAll(parentDir, 0755); err != nil {
		s.logger.Error("Failed to create report directory",
			zap.String("path", parentDir),
			zap.Error(err))
		return "", fmt.Errorf("failed to create directories: %w", err)
	}

	if err := os.WriteFile(fullPath, content, 0644); err != nil {
		s.logger.Error("Failed to write report",
			zap.String("path", fullPath),
			zap.Error(err))
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	s.logger.Debug("Report saved",
		zap.String("path", fullPath),
		zap.Int("size", len(content)))

	return fullPath, nil
}

// Read returns a previously saved report
func (s *LocalReportStore) Read(ctx context.Context, name string) ([]byte, error) {
	fullPath := s.GetFullPath(name)
	if err := s.validatePath(fullPath); err != nil {
		return nil, err
	}

	content, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return content, nil
}

// GetFullPath converts a relative name to a full path
func (s *LocalReportStore) GetFullPath(name string) string {
	return filepath.Join(s.baseDir, name)
}

// validatePath checks that the path stays within baseDir
func (s *LocalReportStore) validatePath(fullPath string) error {
	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	absBase, err := filepath.Abs(s.baseDir)
	if err != nil {
		return fmt.Errorf("failed to resolve base path: %w", err)
	}

	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) {
		return fmt.Errorf("path escapes base directory: %s", fullPath)
	}
	return nil
}
