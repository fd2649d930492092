package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/futig/rag-chatbot/internal/entity"
)

// LoadItems reads a JSON array of knowledge items
func LoadItems(path string) ([]entity.KnowledgeItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read knowledge base: %w", err)
	}

	if len(data) == 0 {
		return nil, errors.New("knowledge base file is empty")
	}

	var items []entity.KnowledgeItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parse knowledge base %s: %w", path, err)
	}

	if len(items) == 0 {
		return nil, errors.New("knowledge base contains no items")
	}

	return items, nil
}
