// Package audit persists validator violation reports for offline review.
// Writes are best-effort and never block the request path.
package audit

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"

	apperrors "district-concierge/internal/common/errors"
	"district-concierge/internal/common/logger"
	"district-concierge/internal/common/metrics"
	"district-concierge/internal/models"
)

// Sink receives violation reports. Implementations must not block the
// caller; a dropped report is acceptable, a stalled request is not.
type Sink interface {
	Record(report models.ViolationReport)
	Close()
}

const writeTimeout = 2 * time.Second

// PostgresSink buffers reports on a channel and writes them from a single
// background goroutine. When the buffer is full the report is dropped and
// counted.
type PostgresSink struct {
	db      *sql.DB
	reports chan models.ViolationReport
	done    chan struct{}
	logger  logger.Logger
}

func NewPostgresSink(db *sql.DB, bufferSize int, log logger.Logger) *PostgresSink {
	s := &PostgresSink{
		db:      db,
		reports: make(chan models.ViolationReport, bufferSize),
		done:    make(chan struct{}),
		logger:  log.WithFields(map[string]interface{}{"component": "audit-sink"}),
	}
	go s.run()
	return s
}

// Record enqueues a report without blocking. Overflow drops the report.
func (s *PostgresSink) Record(report models.ViolationReport) {
	select {
	case s.reports <- report:
	default:
		metrics.AuditWriteFailures.Inc()
		s.logger.Warn("audit buffer full, report dropped", map[string]interface{}{
			"sessionId": report.SessionID,
			"state":     string(report.State),
		})
	}
}

// Close drains the buffer and stops the writer goroutine.
func (s *PostgresSink) Close() {
	close(s.reports)
	<-s.done
}

func (s *PostgresSink) run() {
	defer close(s.done)
	for report := range s.reports {
		if err := s.write(report); err != nil {
			metrics.AuditWriteFailures.Inc()
			s.logger.Warn("audit write failed", map[string]interface{}{
				"sessionId": report.SessionID,
				"error":     err.Error(),
			})
		}
	}
}

func (s *PostgresSink) write(report models.ViolationReport) error {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	violations := make([]string, len(report.Violations))
	for i, v := range report.Violations {
		violations[i] = string(v)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO validation_audit (session_id, original_text, violations, state, created_at)
		VALUES ($1, $2, $3, $4, NOW())`,
		report.SessionID, report.OriginalText, pq.Array(violations), string(report.State),
	)
	if err != nil {
		return apperrors.NewAuditWriteFailedError(err)
	}
	return nil
}

// NoopSink discards every report. Used when auditing is disabled.
type NoopSink struct{}

func (NoopSink) Record(models.ViolationReport) {}
func (NoopSink) Close()                        {}
