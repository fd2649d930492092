package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/futig/rag-chatbot/internal/entity"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T, threshold float64) (*VectorPostgres, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
	})
	return NewVectorPostgres(mock, "instructions", threshold), mock
}

func TestSearchQueryRanksByCosineSimilarity(t *testing.T) {
	// score is 1 - cosine distance, filtered by threshold and ordered nearest first
	assert.Contains(t, searchPassagesQuery, "1 - (embedding <=> $2) AS score")
	assert.Contains(t, searchPassagesQuery, "1 - (embedding <=> $2) >= $3")
	assert.Contains(t, searchPassagesQuery, "ORDER BY embedding <=> $2")
	assert.Contains(t, searchPassagesQuery, "LIMIT $4")
}

func TestVectorPostgresSearch(t *testing.T) {
	store, mock := newMockStore(t, 0.5)
	vector := []float32{0.1, 0.2, 0.3}

	mock.ExpectQuery(searchPassagesQuery).
		WithArgs("instructions", pgvector.NewVector(vector), 0.5, 2).
		WillReturnRows(pgxmock.NewRows([]string{"id", "payload", "score"}).
			AddRow("p1", map[string]any{
				entity.PayloadInstruction: "What is the capital of France?",
				entity.PayloadOutput:      "Paris.",
			}, 0.92).
			AddRow("p2", map[string]any{entity.PayloadText: "Rome is in Italy.", "source": "faq"}, 0.61))

	passages, err := store.Search(context.Background(), vector, 2)
	require.NoError(t, err)
	require.Len(t, passages, 2)

	assert.Equal(t, "p1", passages[0].ID)
	assert.Equal(t, "Q: What is the capital of France?\nA: Paris.", passages[0].Text)
	assert.InDelta(t, 0.92, passages[0].Score, 1e-6)

	assert.Equal(t, "p2", passages[1].ID)
	assert.Equal(t, "Rome is in Italy.", passages[1].Text)
	assert.Equal(t, "faq", passages[1].Metadata["source"])
	assert.GreaterOrEqual(t, passages[0].Score, passages[1].Score)
}

func TestVectorPostgresSearchErrors(t *testing.T) {
	t.Run("top_k must be positive", func(t *testing.T) {
		store, _ := newMockStore(t, 0)

		_, err := store.Search(context.Background(), []float32{1}, 0)
		assert.ErrorIs(t, err, entity.ErrValidation)
	})

	t.Run("query failure", func(t *testing.T) {
		store, mock := newMockStore(t, 0)
		mock.ExpectQuery(searchPassagesQuery).
			WithArgs("instructions", pgvector.NewVector([]float32{1}), 0.0, 1).
			WillReturnError(errors.New("connection reset"))

		_, err := store.Search(context.Background(), []float32{1}, 1)
		assert.ErrorIs(t, err, entity.ErrRetrieval)
	})
}

func TestVectorPostgresEnsureCollection(t *testing.T) {
	t.Run("creates missing collection", func(t *testing.T) {
		store, mock := newMockStore(t, 0)
		mock.ExpectExec(createCollectionQuery).
			WithArgs("instructions", 3).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		created, err := store.EnsureCollection(context.Background(), 3)
		require.NoError(t, err)
		assert.True(t, created)

		// dimension is now known, so a wrong-size vector fails before any query
		_, err = store.Search(context.Background(), []float32{1, 2}, 1)
		assert.ErrorIs(t, err, entity.ErrRetrieval)
		assert.ErrorIs(t, err, entity.ErrDimensionMismatch)
	})

	t.Run("keeps existing collection", func(t *testing.T) {
		store, mock := newMockStore(t, 0)
		mock.ExpectExec(createCollectionQuery).
			WithArgs("instructions", 3).
			WillReturnResult(pgxmock.NewResult("INSERT", 0))
		mock.ExpectQuery(collectionDimensionQuery).
			WithArgs("instructions").
			WillReturnRows(pgxmock.NewRows([]string{"dimension"}).AddRow(3))

		created, err := store.EnsureCollection(context.Background(), 3)
		require.NoError(t, err)
		assert.False(t, created)
	})

	t.Run("existing collection with another size", func(t *testing.T) {
		store, mock := newMockStore(t, 0)
		mock.ExpectExec(createCollectionQuery).
			WithArgs("instructions", 384).
			WillReturnResult(pgxmock.NewResult("INSERT", 0))
		mock.ExpectQuery(collectionDimensionQuery).
			WithArgs("instructions").
			WillReturnRows(pgxmock.NewRows([]string{"dimension"}).AddRow(768))

		created, err := store.EnsureCollection(context.Background(), 384)
		assert.False(t, created)
		assert.ErrorIs(t, err, entity.ErrRetrieval)
		assert.ErrorIs(t, err, entity.ErrDimensionMismatch)
	})

	t.Run("vector size must be positive", func(t *testing.T) {
		store, _ := newMockStore(t, 0)

		_, err := store.EnsureCollection(context.Background(), 0)
		assert.ErrorIs(t, err, entity.ErrValidation)
	})
}

func TestVectorPostgresUpsert(t *testing.T) {
	store, mock := newMockStore(t, 0)
	points := []entity.Point{
		{ID: "p1", Vector: []float32{1, 0}, Payload: map[string]any{"instruction": "q1", "output": "a1"}},
		{ID: "p2", Vector: []float32{0, 1}},
	}

	batch := mock.ExpectBatch()
	batch.ExpectExec(upsertPassageQuery).
		WithArgs("instructions", "p1", pgvector.NewVector([]float32{1, 0}), map[string]any{"instruction": "q1", "output": "a1"}).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	batch.ExpectExec(upsertPassageQuery).
		WithArgs("instructions", "p2", pgvector.NewVector([]float32{0, 1}), map[string]any{}).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.Upsert(context.Background(), points))
}

func TestVectorPostgresUpsertErrors(t *testing.T) {
	t.Run("nothing to write", func(t *testing.T) {
		store, _ := newMockStore(t, 0)
		assert.NoError(t, store.Upsert(context.Background(), nil))
	})

	t.Run("batch failure", func(t *testing.T) {
		store, mock := newMockStore(t, 0)
		batch := mock.ExpectBatch()
		batch.ExpectExec(upsertPassageQuery).
			WithArgs("instructions", "p1", pgvector.NewVector([]float32{1}), map[string]any{}).
			WillReturnError(errors.New("foreign key violation"))

		err := store.Upsert(context.Background(), []entity.Point{{ID: "p1", Vector: []float32{1}}})
		assert.ErrorIs(t, err, entity.ErrRetrieval)
	})
}

func TestVectorPostgresCountAndDelete(t *testing.T) {
	store, mock := newMockStore(t, 0)
	mock.ExpectQuery(countPassagesQuery).
		WithArgs("instructions").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(42)))
	mock.ExpectExec(deleteCollectionQuery).
		WithArgs("instructions").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	n, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)

	require.NoError(t, store.DeleteCollection(context.Background()))
	assert.Equal(t, "pgvector", store.Name())
}
