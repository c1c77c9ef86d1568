package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "district-concierge/internal/common/errors"
	"district-concierge/internal/common/logger"
	"district-concierge/internal/models"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock db: %v", err)
	}
	return db, mock
}

func newTestStore(db *sql.DB, t *testing.T) *PostgresStore {
	return NewPostgresStore(db, 2*time.Second, logger.NewTestLogger(t))
}

var recordRows = []string{"id", "name", "category", "subcategory", "tags", "partner_tier", "rating", "evidence_level", "address", "phone", "hours"}

func TestPostgresStore_GetByCategory(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	rows := sqlmock.NewRows(recordRows).
		AddRow("biz-1", "Sushi Ten", "food", nil, "{Japanese cuisine,sushi}", 1, 4.5, "verified", "12 Elm St", "555-0101", "11-22").
		AddRow("biz-2", "Kyo Kitchen", "food", nil, "{Japanese cuisine}", 0, 4.2, "verified", nil, nil, nil)

	mock.ExpectQuery("SELECT (.+) FROM businesses WHERE active = true AND category = \\$1 ORDER BY id").
		WithArgs("food").
		WillReturnRows(rows)

	records, err := newTestStore(db, t).GetByCategory(context.Background(), "food", "")

	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Sushi Ten", records[0].Name)
	assert.Equal(t, []string{"Japanese cuisine", "sushi"}, records[0].Tags)
	assert.Equal(t, models.EvidenceVerified, records[0].EvidenceLevel)
	assert.Equal(t, "12 Elm St", records[0].Address)
	assert.Empty(t, records[1].Address, "null optional columns scan to empty strings")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetByCategoryWithSubcategory(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM businesses WHERE active = true AND category = \\$1 AND subcategory = \\$2 ORDER BY id").
		WithArgs("medical", "pharmacy").
		WillReturnRows(sqlmock.NewRows(recordRows))

	records, err := newTestStore(db, t).GetByCategory(context.Background(), "medical", "pharmacy")

	require.NoError(t, err)
	assert.Empty(t, records)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetByID_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM businesses WHERE active = true AND id = \\$1").
		WithArgs("biz-missing").
		WillReturnError(sql.ErrNoRows)

	rec, err := newTestStore(db, t).GetByID(context.Background(), "biz-missing")

	require.NoError(t, err, "an unknown id is not an error")
	assert.Nil(t, rec)
}

func TestPostgresStore_GetByID_RetryRecovers(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM businesses WHERE active = true AND id = \\$1").
		WithArgs("biz-1").
		WillReturnError(fmt.Errorf("connection reset"))
	mock.ExpectQuery("SELECT (.+) FROM businesses WHERE active = true AND id = \\$1").
		WithArgs("biz-1").
		WillReturnRows(sqlmock.NewRows(recordRows).
			AddRow("biz-1", "Sushi Ten", "food", nil, "{sushi}", 1, 4.5, "verified", nil, nil, nil))

	rec, err := newTestStore(db, t).GetByID(context.Background(), "biz-1")

	require.NoError(t, err, "a transient failure on a single-row read is retried like the list reads")
	require.NotNil(t, rec)
	assert.Equal(t, "Sushi Ten", rec.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_RetriesOnceThenFails(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	dbErr := fmt.Errorf("connection reset")
	mock.ExpectQuery("SELECT (.+) FROM businesses WHERE active = true ORDER BY id").WillReturnError(dbErr)
	mock.ExpectQuery("SELECT (.+) FROM businesses WHERE active = true ORDER BY id").WillReturnError(dbErr)

	_, err := newTestStore(db, t).GetAllActive(context.Background())

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeCatalogUnavailable, apperrors.CodeOf(err))
	assert.NoError(t, mock.ExpectationsWereMet(), "a failed read is retried exactly once")
}

func TestPostgresStore_RetryRecovers(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM businesses WHERE active = true ORDER BY id").
		WillReturnError(fmt.Errorf("connection reset"))
	mock.ExpectQuery("SELECT (.+) FROM businesses WHERE active = true ORDER BY id").
		WillReturnRows(sqlmock.NewRows(recordRows).
			AddRow("biz-1", "Sushi Ten", "food", nil, "{sushi}", 1, 4.5, "verified", nil, nil, nil))

	records, err := newTestStore(db, t).GetAllActive(context.Background())

	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetActiveFAQs(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery("SELECT id, question, answer, category, active FROM faq_entries WHERE active = true ORDER BY id").
		WillReturnRows(sqlmock.NewRows([]string{"id", "question", "answer", "category", "active"}).
			AddRow("faq-1", "parking fee", "200 per hour", "parking", true))

	faqs, err := newTestStore(db, t).GetActiveFAQs(context.Background())

	require.NoError(t, err)
	require.Len(t, faqs, 1)
	assert.Equal(t, "parking fee", faqs[0].Question)
}

func TestPostgresStore_GetByExactQuestion_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery("SELECT id, question, answer, category, active FROM faq_entries").
		WithArgs("unknown question").
		WillReturnError(sql.ErrNoRows)

	entry, err := newTestStore(db, t).GetByExactQuestion(context.Background(), "unknown question")

	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestPostgresStore_GetByExactQuestion_RetryRecovers(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery("SELECT id, question, answer, category, active FROM faq_entries").
		WithArgs("parking fee").
		WillReturnError(fmt.Errorf("connection reset"))
	mock.ExpectQuery("SELECT id, question, answer, category, active FROM faq_entries").
		WithArgs("parking fee").
		WillReturnRows(sqlmock.NewRows([]string{"id", "question", "answer", "category", "active"}).
			AddRow("faq-1", "parking fee", "200 per hour", "parking", true))

	entry, err := newTestStore(db, t).GetByExactQuestion(context.Background(), "parking fee")

	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "200 per hour", entry.Answer)
	assert.NoError(t, mock.ExpectationsWereMet())
}
