package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/responsum/internal/interfaces"
	"github.com/ternarybob/responsum/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// ReportStorage implements the ReportStorage interface for Badger
type ReportStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewReportStorage creates a new ReportStorage instance
func NewReportStorage(db *BadgerDB, logger arbor.ILogger) interfaces.ReportStorage {
	return &ReportStorage{
		db:     db,
		logger: logger,
	}
}

// SaveReport persists an evaluation report keyed by its ID
func (s *ReportStorage) SaveReport(ctx context.Context, report *models.EvaluationReport) error {
	if report.ID == "" {
		return fmt.Errorf("report ID is required")
	}

	if err := s.db.Store().Upsert(report.ID, report); err != nil {
		return fmt.Errorf("failed to save evaluation report: %w", err)
	}

	s.logger.Debug().Str("report_id", report.ID).Msg("Saved evaluation report")
	return nil
}

// GetReport retrieves an evaluation report by ID
func (s *ReportStorage) GetReport(ctx context.Context, id string) (*models.EvaluationReport, error) {
	var report models.EvaluationReport
	err := s.db.Store().Get(id, &report)
	if err == badgerhold.ErrNotFound {
		return nil, interfaces.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get evaluation report: %w", err)
	}
	return &report, nil
}

// GetLatestReport returns the most recently started evaluation report,
// or ErrKeyNotFound when no runs have been recorded
func (s *ReportStorage) GetLatestReport(ctx context.Context) (*models.EvaluationReport, error) {
	reports, err := s.ListReports(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(reports) == 0 {
		return nil, interfaces.ErrKeyNotFound
	}
	return &reports[0], nil
}

// ListReports returns evaluation reports ordered by start time DESC
func (s *ReportStorage) ListReports(ctx context.Context, limit int) ([]models.EvaluationReport, error) {
	var reports []models.EvaluationReport
	query := badgerhold.Where("ID").Ne("").SortBy("StartedAt").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := s.db.Store().Find(&reports, query); err != nil {
		return nil, fmt.Errorf("failed to list evaluation reports: %w", err)
	}
	return reports, nil
}
