// Package downstream implements the recomputation collaborators triggered
// after an import batch that changed data.
package downstream

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/magnolia/pkg/database"
	"github.com/Ramsey-B/magnolia/pkg/kafka"
	"github.com/Ramsey-B/magnolia/pkg/tracing"
)

// Service recomputes derived data after imports. Every operation is
// idempotent: re-running one after no change is a no-op.
type Service struct {
	db       database.DB
	producer *kafka.Producer
	logger   ectologger.Logger
}

// NewService creates a new downstream recompute service
func NewService(db database.DB, producer *kafka.Producer, logger ectologger.Logger) *Service {
	return &Service{
		db:       db,
		producer: producer,
		logger:   logger,
	}
}

// RecomputePersonComplaintCounts refreshes the derived complaint count on
// every person from the current complaint table.
func (s *Service) RecomputePersonComplaintCounts(ctx context.Context) error {
	ctx, span := tracing.StartSpan(ctx, "downstream.Service.RecomputePersonComplaintCounts")
	defer span.End()

	query := `
		UPDATE people
		SET all_complaints_count = sub.complaints
		FROM (
			SELECT o.id AS officer_id, COUNT(c.id) AS complaints
			FROM officers o
			LEFT JOIN complaints c ON c.officer_id = o.id
			GROUP BY o.id
		) sub
		WHERE sub.officer_id = people.canonical_officer_id
	`

	result, err := s.db.ExecContext(ctx, query)
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("Failed to recompute person complaint counts")
		return httperror.NewHTTPErrorf(http.StatusInternalServerError, "failed to recompute person complaint counts: %v", err)
	}

	rows, _ := result.RowsAffected()
	s.logger.WithContext(ctx).WithFields(map[string]any{"rows": rows}).Info("Recomputed person complaint counts")
	return nil
}

// RecomputeDepartmentDataPeriods refreshes each department's derived data
// period from the incident dates it has on record.
func (s *Service) RecomputeDepartmentDataPeriods(ctx context.Context) error {
	ctx, span := tracing.StartSpan(ctx, "downstream.Service.RecomputeDepartmentDataPeriods")
	defer span.End()

	query := `
		UPDATE departments
		SET data_period_start = sub.period_start,
		    data_period_end = sub.period_end
		FROM (
			SELECT department_id, MIN(occur_date) AS period_start, MAX(occur_date) AS period_end
			FROM (
				SELECT department_id, occur_date FROM complaints WHERE occur_date IS NOT NULL
				UNION ALL
				SELECT department_id, occur_date FROM use_of_forces WHERE occur_date IS NOT NULL
			) incidents
			WHERE department_id IS NOT NULL
			GROUP BY department_id
		) sub
		WHERE sub.department_id = departments.id
	`

	result, err := s.db.ExecContext(ctx, query)
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("Failed to recompute department data periods")
		return httperror.NewHTTPErrorf(http.StatusInternalServerError, "failed to recompute department data periods: %v", err)
	}

	rows, _ := result.RowsAffected()
	s.logger.WithContext(ctx).WithFields(map[string]any{"rows": rows}).Info("Recomputed department data periods")
	return nil
}

// RebuildSearchIndex asks the search service to rebuild its index. The
// rebuild itself runs out of process; the request is the only contract here.
func (s *Service) RebuildSearchIndex(ctx context.Context) error {
	ctx, span := tracing.StartSpan(ctx, "downstream.Service.RebuildSearchIndex")
	defer span.End()

	event := &kafka.ImportEvent{EventType: "search.rebuild_requested"}
	if err := s.producer.PublishImportEvent(ctx, event); err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("Failed to request search index rebuild")
		return err
	}

	s.logger.WithContext(ctx).Info("Requested search index rebuild")
	return nil
}
