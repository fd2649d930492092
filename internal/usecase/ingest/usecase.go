package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/futig/rag-chatbot/internal/entity"
	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const defaultSource = "data.json"

// pointNamespace seeds the name-based point ids, so re-ingesting the same
// item overwrites its point instead of duplicating it.
var pointNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("rag-chatbot/knowledge-item"))

type Config struct {
	BatchSize int
}

// Result summarizes one ingestion run
type Result struct {
	Created  bool
	Ingested int
	Skipped  int
	Duration time.Duration
}

type Usecase struct {
	embedder Embedder
	store    Store
	cfg      Config
	logger   *zap.Logger
}

func NewUsecase(embedder Embedder, store Store, cfg Config, logger *zap.Logger) *Usecase {
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 100
	}

	return &Usecase{
		embedder: embedder,
		store:    store,
		cfg:      cfg,
		logger:   logger,
	}
}

// Run makes sure the collection exists and fills it with items. An existing
// collection is left untouched unless recreate is set.
func (u *Usecase) Run(ctx context.Context, items []entity.KnowledgeItem, recreate bool) (*Result, error) {
	start := time.Now()
	dim := u.embedder.Dimensions()

	if recreate {
		ctxzap.Info(ctx, "dropping collection before ingestion")
		if err := u.store.DeleteCollection(ctx); err != nil {
			return nil, fmt.Errorf("delete collection: %w", err)
		}
	}

	created, err := u.store.EnsureCollection(ctx, dim)
	if err != nil {
		return nil, fmt.Errorf("ensure collection: %w", err)
	}

	if !created && !recreate {
		ctxzap.Info(ctx, "collection already exists, skipping ingestion")
		return &Result{Duration: time.Since(start)}, nil
	}

	res, err := u.Ingest(ctx, items)
	if err != nil {
		return nil, err
	}
	res.Created = created
	res.Duration = time.Since(start)
	return res, nil
}

// Ingest embeds and upserts items into a collection that already exists
func (u *Usecase) Ingest(ctx context.Context, items []entity.KnowledgeItem) (*Result, error) {
	start := time.Now()
	res := &Result{}

	batch := make([]entity.Point, 0, u.cfg.BatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := u.store.Upsert(ctx, batch); err != nil {
			return fmt.Errorf("upsert batch: %w", err)
		}
		res.Ingested += len(batch)
		ctxzap.Info(ctx, "batch ingested",
			zap.Int("batch_size", len(batch)),
			zap.Int("ingested", res.Ingested),
			zap.Int("total", len(items)),
		)
		batch = batch[:0]
		return nil
	}

	for i, item := range items {
		if strings.TrimSpace(item.Instruction) == "" {
			ctxzap.Warn(ctx, "skipping item without instruction", zap.Int("index", i))
			res.Skipped++
			continue
		}

		vector, err := u.embedder.Embed(ctx, item.Instruction)
		if err != nil {
			return nil, fmt.Errorf("embed item %d: %w", i, err)
		}

		batch = append(batch, entity.Point{
			ID:      PointID(item),
			Vector:  vector,
			Payload: Payload(item),
		})

		if len(batch) >= u.cfg.BatchSize {
			if err := flush(); err != nil {
				return nil, err
			}
		}
	}

	if err := flush(); err != nil {
		return nil, err
	}

	res.Duration = time.Since(start)
	ctxzap.Info(ctx, "ingestion completed",
		zap.Int("ingested", res.Ingested),
		zap.Int("skipped", res.Skipped),
		zap.Duration("duration", res.Duration),
	)

	return res, nil
}

// PointID derives a stable UUIDv5 from the item content
func PointID(item entity.KnowledgeItem) string {
	return uuid.NewSHA1(pointNamespace, []byte(item.Instruction+"\x00"+item.Output)).String()
}

// Payload is what gets stored next to the vector
func Payload(item entity.KnowledgeItem) map[string]any {
	payload := map[string]any{
		entity.PayloadInstruction: item.Instruction,
		entity.PayloadOutput:      item.Output,
	}

	if item.Input != "" {
		payload[entity.PayloadInput] = item.Input
	}
	if item.ChannelUsername != "" {
		payload[entity.PayloadChannelUsername] = item.ChannelUsername
	}
	if item.VideoID != "" {
		payload[entity.PayloadVideoID] = item.VideoID
	}

	source := item.Source
	if source == "" {
		source = defaultSource
	}
	payload[entity.PayloadSource] = source

	return payload
}
