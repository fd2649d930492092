package entity

// QueryRequest is the body of POST /query.
// TopK is a pointer so that an omitted field can be told apart from an explicit 0.
type QueryRequest struct {
	Question string `json:"question"`
	TopK     *int   `json:"top_k,omitempty"`
}

// Query is a validated question ready for the pipeline
type Query struct {
	Question string
	TopK     int
}

type Source struct {
	ID       string         `json:"id,omitempty"`
	Score    float32        `json:"score"`
	Metadata map[string]any `json:"metadata"`
}

type QueryStats struct {
	Passages     int   `json:"passages"`
	EmbeddingMs  int64 `json:"embedding_ms"`
	RetrievalMs  int64 `json:"retrieval_ms"`
	GenerationMs int64 `json:"generation_ms"`
	TotalMs      int64 `json:"total_ms"`
}

// Answer is the final payload of a query
type Answer struct {
	Answer   string     `json:"answer"`
	Question string     `json:"question"`
	Sources  []Source   `json:"sources"`
	Stats    QueryStats `json:"stats"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}
