package qdrant

import (
	"encoding/json"
	"strconv"
	"strings"
)

type searchRequest struct {
	Vector         []float32 `json:"vector"`
	Limit          int       `json:"limit"`
	WithPayload    bool      `json:"with_payload"`
	ScoreThreshold *float32  `json:"score_threshold,omitempty"`
}

type scoredPoint struct {
	ID      pointID        `json:"id"`
	Score   float32        `json:"score"`
	Payload map[string]any `json:"payload"`
}

type searchResponse struct {
	Result []scoredPoint `json:"result"`
	Status any           `json:"status"`
	Time   float64       `json:"time"`
}

type collectionInfoResponse struct {
	Result struct {
		Status      string `json:"status"`
		PointsCount *int64 `json:"points_count"`
		Config      struct {
			Params struct {
				Vectors struct {
					Size     int    `json:"size"`
					Distance string `json:"distance"`
				} `json:"vectors"`
			} `json:"params"`
		} `json:"config"`
	} `json:"result"`
}

type vectorParams struct {
	Size     int    `json:"size"`
	Distance string `json:"distance"`
}

type createCollectionRequest struct {
	Vectors vectorParams `json:"vectors"`
}

type upsertPoint struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload,omitempty"`
}

type upsertRequest struct {
	Points []upsertPoint `json:"points"`
}

// statusResponse covers the ack bodies of create, delete and upsert calls
type statusResponse struct {
	Result any     `json:"result"`
	Status any     `json:"status"`
	Time   float64 `json:"time"`
}

// pointID accepts both forms Qdrant uses for ids: unsigned integers and UUID strings
type pointID string

func (p *pointID) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = pointID(s)
		return nil
	}

	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return err
	}
	*p = pointID(strconv.FormatUint(n, 10))
	return nil
}
