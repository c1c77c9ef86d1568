package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	apperrors "district-concierge/internal/common/errors"
	"district-concierge/internal/common/logger"
	"district-concierge/internal/models"
)

const recordColumns = `id, name, category, subcategory, tags, partner_tier, rating, evidence_level, address, phone, hours`

// PostgresStore implements Store and FAQStore against the directory schema.
// Reads are idempotent, so a failed query is retried once with a short
// backoff before the error surfaces as CATALOG_UNAVAILABLE.
type PostgresStore struct {
	db      *sql.DB
	timeout time.Duration
	logger  logger.Logger
}

func NewPostgresStore(db *sql.DB, timeout time.Duration, log logger.Logger) *PostgresStore {
	return &PostgresStore{
		db:      db,
		timeout: timeout,
		logger:  log.WithFields(map[string]interface{}{"component": "catalog-store"}),
	}
}

func (s *PostgresStore) GetByCategory(ctx context.Context, category, subcategory string) ([]models.CatalogRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM businesses WHERE active = true AND category = $1`
	args := []interface{}{category}
	if subcategory != "" {
		query += ` AND subcategory = $2`
		args = append(args, subcategory)
	}
	query += ` ORDER BY id`

	return s.queryRecords(ctx, "get_by_category", query, args...)
}

func (s *PostgresStore) GetByID(ctx context.Context, id string) (*models.CatalogRecord, error) {
	var rec *models.CatalogRecord
	err := s.withRetry(ctx, "get_by_id", func(ctx context.Context) error {
		row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM businesses WHERE active = true AND id = $1`, id)

		found, err := scanRecord(row)
		if errors.Is(err, sql.ErrNoRows) {
			// A miss is a valid answer, not a transient failure.
			rec = nil
			return nil
		}
		if err != nil {
			return err
		}
		rec = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *PostgresStore) GetAllActive(ctx context.Context) ([]models.CatalogRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM businesses WHERE active = true ORDER BY id`
	return s.queryRecords(ctx, "get_all_active", query)
}

func (s *PostgresStore) queryRecords(ctx context.Context, operation, query string, args ...interface{}) ([]models.CatalogRecord, error) {
	var records []models.CatalogRecord
	err := s.withRetry(ctx, operation, func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		records = records[:0]
		for rows.Next() {
			rec, err := scanRecord(rows)
			if err != nil {
				return err
			}
			records = append(records, *rec)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (s *PostgresStore) GetActiveFAQs(ctx context.Context) ([]models.FaqEntry, error) {
	var faqs []models.FaqEntry
	err := s.withRetry(ctx, "get_active_faqs", func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx,
			`SELECT id, question, answer, category, active FROM faq_entries WHERE active = true ORDER BY id`)
		if err != nil {
			return err
		}
		defer rows.Close()

		faqs = faqs[:0]
		for rows.Next() {
			var f models.FaqEntry
			if err := rows.Scan(&f.ID, &f.Question, &f.Answer, &f.Category, &f.Active); err != nil {
				return err
			}
			faqs = append(faqs, f)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return faqs, nil
}

func (s *PostgresStore) GetByExactQuestion(ctx context.Context, text string) (*models.FaqEntry, error) {
	var entry *models.FaqEntry
	err := s.withRetry(ctx, "get_by_exact_question", func(ctx context.Context) error {
		row := s.db.QueryRowContext(ctx,
			`SELECT id, question, answer, category, active FROM faq_entries WHERE active = true AND lower(question) = lower($1)`, text)

		var f models.FaqEntry
		err := row.Scan(&f.ID, &f.Question, &f.Answer, &f.Category, &f.Active)
		if errors.Is(err, sql.ErrNoRows) {
			entry = nil
			return nil
		}
		if err != nil {
			return err
		}
		entry = &f
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// withRetry runs fn under the store timeout and retries idempotent reads
// once after a short backoff. Context cancellation from the caller is never
// retried.
func (s *PostgresStore) withRetry(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	retries := apperrors.GetRetryCount(apperrors.ErrCodeCatalogUnavailable)

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(time.Duration(100*attempt) * time.Millisecond):
			case <-ctx.Done():
				return apperrors.NewCatalogQueryTimeoutError(operation)
			}
			s.logger.Warn("retrying catalog query", map[string]interface{}{
				"operation": operation,
				"attempt":   attempt,
			})
		}

		attemptCtx, cancel := context.WithTimeout(ctx, s.timeout)
		lastErr = fn(attemptCtx)
		cancel()

		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return apperrors.NewCatalogQueryTimeoutError(operation)
		}
	}

	return s.wrapErr(ctx, operation, lastErr)
}

func (s *PostgresStore) wrapErr(ctx context.Context, operation string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return apperrors.NewCatalogQueryTimeoutError(operation)
	}
	s.logger.Error("catalog query failed", map[string]interface{}{
		"operation": operation,
		"error":     err.Error(),
	})
	return apperrors.NewCatalogUnavailableError(fmt.Errorf("%s: %w", operation, err))
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (*models.CatalogRecord, error) {
	var rec models.CatalogRecord
	var subcategory, address, phone, hours sql.NullString
	err := row.Scan(
		&rec.ID,
		&rec.Name,
		&rec.Category,
		&subcategory,
		pq.Array(&rec.Tags),
		&rec.PartnerTier,
		&rec.Rating,
		&rec.EvidenceLevel,
		&address,
		&phone,
		&hours,
	)
	if err != nil {
		return nil, err
	}
	rec.Subcategory = subcategory.String
	rec.Address = address.String
	rec.Phone = phone.String
	rec.Hours = hours.String
	return &rec, nil
}
