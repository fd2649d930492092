package repository

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/futig/rag-chatbot/internal/config"
	"github.com/futig/rag-chatbot/internal/entity"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"
)

const (
	searchPassagesQuery = `
SELECT id, payload, 1 - (embedding <=> $2) AS score
FROM passages
WHERE collection = $1 AND 1 - (embedding <=> $2) >= $3
ORDER BY embedding <=> $2
LIMIT $4`

	countPassagesQuery = `SELECT COUNT(*) FROM passages WHERE collection = $1`

	collectionDimensionQuery = `SELECT dimension FROM collections WHERE name = $1`

	createCollectionQuery = `
INSERT INTO collections (name, dimension) VALUES ($1, $2)
ON CONFLICT (name) DO NOTHING`

	deleteCollectionQuery = `DELETE FROM collections WHERE name = $1`

	upsertPassageQuery = `
INSERT INTO passages (collection, id, embedding, payload) VALUES ($1, $2, $3, $4)
ON CONFLICT (collection, id) DO UPDATE
SET embedding = EXCLUDED.embedding, payload = EXCLUDED.payload, updated_at = NOW()`
)

// pgxPool is the part of *pgxpool.Pool the store uses
type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// VectorPostgres stores passages in Postgres with the pgvector extension and
// ranks them by cosine similarity.
type VectorPostgres struct {
	db         pgxPool
	collection string
	threshold  float64
	dimensions atomic.Int64
}

func NewVectorPostgres(db pgxPool, collection string, scoreThreshold float64) *VectorPostgres {
	return &VectorPostgres{
		db:         db,
		collection: collection,
		threshold:  scoreThreshold,
	}
}

func (r *VectorPostgres) Name() string {
	return config.VectorStorePgvector
}

func (r *VectorPostgres) Search(ctx context.Context, vector []float32, topK int) ([]entity.ContextPassage, error) {
	if topK < 1 {
		return nil, fmt.Errorf("%w: top_k must be positive, got %d", entity.ErrValidation, topK)
	}
	if dim := int(r.dimensions.Load()); dim > 0 && len(vector) != dim {
		return nil, fmt.Errorf("%w: %w: vector has %d dimensions, collection expects %d",
			entity.ErrRetrieval, entity.ErrDimensionMismatch, len(vector), dim)
	}

	rows, err := r.db.Query(ctx, searchPassagesQuery, r.collection, pgvector.NewVector(vector), r.threshold, topK)
	if err != nil {
		return nil, fmt.Errorf("%w: search passages: %w", entity.ErrRetrieval, err)
	}
	defer rows.Close()

	passages := make([]entity.ContextPassage, 0, topK)
	for rows.Next() {
		var (
			id      string
			payload map[string]any
			score   float64
		)
		if err := rows.Scan(&id, &payload, &score); err != nil {
			return nil, fmt.Errorf("%w: %w: scan passage: %w", entity.ErrRetrieval, entity.ErrMalformedResponse, err)
		}
		passages = append(passages, entity.PassageFromPayload(id, float32(score), payload))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate passages: %w", entity.ErrRetrieval, err)
	}

	return passages, nil
}

func (r *VectorPostgres) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, countPassagesQuery, r.collection).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: count passages: %w", entity.ErrRetrieval, err)
	}
	return n, nil
}

func (r *VectorPostgres) EnsureCollection(ctx context.Context, dim int) (bool, error) {
	if dim < 1 {
		return false, fmt.Errorf("%w: vector size must be positive, got %d", entity.ErrValidation, dim)
	}

	tag, err := r.db.Exec(ctx, createCollectionQuery, r.collection, dim)
	if err != nil {
		return false, fmt.Errorf("%w: create collection: %w", entity.ErrRetrieval, err)
	}

	if tag.RowsAffected() == 1 {
		r.dimensions.Store(int64(dim))
		return true, nil
	}

	var existing int
	if err := r.db.QueryRow(ctx, collectionDimensionQuery, r.collection).Scan(&existing); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, fmt.Errorf("%w: %w", entity.ErrRetrieval, entity.ErrCollectionNotFound)
		}
		return false, fmt.Errorf("%w: get collection: %w", entity.ErrRetrieval, err)
	}

	if existing != dim {
		return false, fmt.Errorf("%w: %w: collection %q has vector size %d, embedder produces %d",
			entity.ErrRetrieval, entity.ErrDimensionMismatch, r.collection, existing, dim)
	}

	r.dimensions.Store(int64(dim))
	return false, nil
}

func (r *VectorPostgres) Upsert(ctx context.Context, points []entity.Point) error {
	if len(points) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, p := range points {
		payload := p.Payload
		if payload == nil {
			payload = map[string]any{}
		}
		batch.Queue(upsertPassageQuery, r.collection, p.ID, pgvector.NewVector(p.Vector), payload)
	}

	if err := r.db.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("%w: upsert passages: %w", entity.ErrRetrieval, err)
	}

	return nil
}

func (r *VectorPostgres) DeleteCollection(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, deleteCollectionQuery, r.collection); err != nil {
		return fmt.Errorf("%w: delete collection: %w", entity.ErrRetrieval, err)
	}

	r.dimensions.Store(0)
	return nil
}
