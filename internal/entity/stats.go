package entity

// Stats is the body of GET /stats
type Stats struct {
	QueriesServed  int64  `json:"queries_served"`
	TotalDocuments *int64 `json:"total_documents"`
	LLMProvider    string `json:"llm_provider"`
	Model          string `json:"model"`
	EmbeddingModel string `json:"embedding_model"`
	VectorDB       string `json:"vector_db"`
	Collection     string `json:"collection"`
	MaxTokens      int    `json:"max_tokens"`
	DefaultTopK    int    `json:"default_top_k"`
}

// Settings is the body of GET /config
type Settings struct {
	TopK                int     `json:"top_k"`
	MaxTopK             int     `json:"max_top_k"`
	MaxTokens           int     `json:"max_tokens"`
	Temperature         float64 `json:"temperature"`
	SimilarityThreshold float64 `json:"similarity_threshold"`
	LLMProvider         string  `json:"llm_provider"`
	Model               string  `json:"model"`
	EmbeddingModel      string  `json:"embedding_model"`
	CollectionName      string  `json:"collection_name"`
}
