package entity

// ContextPassage is a single search hit from the vector store
type ContextPassage struct {
	ID       string
	Text     string
	Score    float32
	Metadata map[string]any
}

// Point is a vector with its payload, as stored in a collection
type Point struct {
	ID      string
	Vector  []float32
	Payload map[string]any
}

// KnowledgeItem is one record of the instruction/output knowledge base file
type KnowledgeItem struct {
	Instruction     string `json:"instruction"`
	Output          string `json:"output"`
	Input           string `json:"input,omitempty"`
	ChannelUsername string `json:"channel_username,omitempty"`
	VideoID         string `json:"video_id,omitempty"`
	Source          string `json:"source,omitempty"`
}

// Payload keys shared by the ingest flow and the search clients
const (
	PayloadText            = "text"
	PayloadInstruction     = "instruction"
	PayloadOutput          = "output"
	PayloadInput           = "input"
	PayloadChannelUsername = "channel_username"
	PayloadVideoID         = "video_id"
	PayloadSource          = "source"
)

// PassageFromPayload splits a stored payload into passage text and metadata.
// A "text" field wins; instruction/output payloads render as a Q/A pair.
func PassageFromPayload(id string, score float32, payload map[string]any) ContextPassage {
	metadata := make(map[string]any, len(payload))
	for k, v := range payload {
		metadata[k] = v
	}

	var text string
	if t, ok := payload[PayloadText].(string); ok && t != "" {
		text = t
		delete(metadata, PayloadText)
	} else {
		instruction, _ := payload[PayloadInstruction].(string)
		output, _ := payload[PayloadOutput].(string)
		switch {
		case instruction != "" && output != "":
			text = "Q: " + instruction + "\nA: " + output
		case output != "":
			text = output
		default:
			text = instruction
		}
	}

	return ContextPassage{
		ID:       id,
		Text:     text,
		Score:    score,
		Metadata: metadata,
	}
}
