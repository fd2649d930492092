package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/futig/rag-chatbot/internal/builder"
	"go.uber.org/zap"
)

func main() {
	recreate := flag.Bool("recreate", false, "drop the collection before ingesting")
	dataPath := flag.String("data", "", "knowledge base JSON file (defaults to DATA_PATH)")

	job, err := builder.BuildIngest()
	if err != nil {
		log.Fatal("Failed to build ingest job: ", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger := job.Logger()
	res, err := job.Run(ctx, *dataPath, *recreate)
	if err != nil {
		logger.Error("ingestion failed", zap.Error(err))
		cancel()
		os.Exit(1)
	}

	logger.Info("ingestion finished",
		zap.Bool("created", res.Created),
		zap.Int("ingested", res.Ingested),
		zap.Int("skipped", res.Skipped),
		zap.Duration("duration", res.Duration),
	)
}
