// Package catalog provides the read-only contracts against the verified
// business directory and the curated FAQ table.
package catalog

import (
	"context"

	"district-concierge/internal/models"
)

// Store is the read contract against the business directory. All operations
// are side-effect-free; implementations must honor context cancellation.
type Store interface {
	// GetByCategory returns records for a category, optionally narrowed by
	// subcategory. Every returned record carries its evidence level.
	GetByCategory(ctx context.Context, category, subcategory string) ([]models.CatalogRecord, error)

	// GetByID resolves a single record, or nil when the id is unknown.
	GetByID(ctx context.Context, id string) (*models.CatalogRecord, error)

	// GetAllActive returns every active record; used for system intents.
	GetAllActive(ctx context.Context) ([]models.CatalogRecord, error)
}

// FAQStore is the read contract against the question/answer table.
type FAQStore interface {
	GetActiveFAQs(ctx context.Context) ([]models.FaqEntry, error)
	GetByExactQuestion(ctx context.Context, text string) (*models.FaqEntry, error)
}
