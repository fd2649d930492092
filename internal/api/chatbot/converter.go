package chatbot

import "github.com/futig/rag-chatbot/internal/entity"

// toQuery fills in the default top_k when the request leaves it out.
// An explicit 0 is kept so validation can reject it.
func toQuery(req *entity.QueryRequest, defaultTopK int) *entity.Query {
	topK := defaultTopK
	if req.TopK != nil {
		topK = *req.TopK
	}

	return &entity.Query{
		Question: req.Question,
		TopK:     topK,
	}
}
