// Package modelruntime adapts external LLM and embedding HTTP APIs behind
// capability interfaces.
package modelruntime

// Credentials is the decrypted credential set for one provider, keyed by
// field name (api_key, base_url, server_url, ...).
type Credentials map[string]string

// Message is one turn of a chat conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ModelParams are the generation parameters forwarded to the provider.
type ModelParams struct {
	Model            string         `json:"model"`
	Temperature      *float64       `json:"temperature,omitempty"`
	TopP             *float64       `json:"top_p,omitempty"`
	MaxTokens        *int           `json:"max_tokens,omitempty"`
	PresencePenalty  *float64       `json:"presence_penalty,omitempty"`
	FrequencyPenalty *float64       `json:"frequency_penalty,omitempty"`
	Stop             []string       `json:"stop,omitempty"`
	Extra            map[string]any `json:"-"`
}

// Usage is the provider-reported token accounting.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Result is a complete non-streaming generation.
type Result struct {
	Content           string `json:"content"`
	Usage             Usage  `json:"usage"`
	FinishReason      string `json:"finish_reason"`
	SystemFingerprint string `json:"system_fingerprint,omitempty"`
}

// Chunk is one streamed delta.
type Chunk struct {
	Content      string `json:"content"`
	FinishReason string `json:"finish_reason,omitempty"`
}

// EmbeddingResult carries the vectors for a batch of inputs plus an
// estimated token count.
type EmbeddingResult struct {
	Embeddings [][]float64 `json:"embeddings"`
	Usage      Usage       `json:"usage"`
}

// requestBody builds the OpenAI-style JSON body for a chat completion.
func (p ModelParams) requestBody(messages []Message, stream bool) map[string]any {
	body := map[string]any{
		"model":    p.Model,
		"messages": messages,
	}
	if stream {
		body["stream"] = true
	}
	if p.Temperature != nil {
		body["temperature"] = *p.Temperature
	}
	if p.TopP != nil {
		body["top_p"] = *p.TopP
	}
	if p.MaxTokens != nil {
		body["max_tokens"] = *p.MaxTokens
	}
	if p.PresencePenalty != nil {
		body["presence_penalty"] = *p.PresencePenalty
	}
	if p.FrequencyPenalty != nil {
		body["frequency_penalty"] = *p.FrequencyPenalty
	}
	if len(p.Stop) > 0 {
		body["stop"] = p.Stop
	}
	for k, v := range p.Extra {
		body[k] = v
	}
	return body
}
