// Package store defines the persistence interface for pipeline runs and
// item embeddings.
package store

import (
	"context"

	"github.com/weftlab/weft/internal/models"
)

// Store defines run and embedding persistence operations.
type Store interface {
	// Run operations
	SaveRun(ctx context.Context, run *models.Run) error
	LatestRun(ctx context.Context) (*models.Run, error)
	ListRuns(ctx context.Context, limit int) ([]*models.Run, error)

	// Embedding operations
	ReplaceEmbeddings(ctx context.Context, runID string, embeddings []*models.Embedding) error
	GetEmbedding(ctx context.Context, itemID string) (*models.Embedding, error)
	ListEmbeddings(ctx context.Context) ([]*models.Embedding, error)

	// Stats
	CountItems(ctx context.Context) (int64, error)

	Close() error
}
