package modelruntime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/craftwork/polaris/internal/config"
)

func newHolder(t *testing.T) *config.RuntimeHolder {
	t.Helper()
	holder, err := config.NewRuntimeHolder()
	if err != nil {
		t.Fatalf("runtime holder: %v", err)
	}
	return holder
}

func TestOpenAIValidateCredentials(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models" {
			t.Errorf("path = %q, want /models", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]string{{"id": "gpt-4o"}, {"id": "gpt-4o-mini"}},
		})
	}))
	defer srv.Close()

	p := NewOpenAIProvider(newHolder(t))
	creds := Credentials{"api_key": "sk-test", "base_url": srv.URL}

	if err := p.ValidateCredentials(context.Background(), creds); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if gotAuth != "Bearer sk-test" {
		t.Errorf("authorization = %q", gotAuth)
	}

	models, err := p.AvailableModels(context.Background(), creds)
	if err != nil {
		t.Fatalf("models: %v", err)
	}
	if len(models) != 2 || models[0] != "gpt-4o" {
		t.Errorf("models = %v", models)
	}
}

func TestOpenAIValidateCredentialsRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	p := NewOpenAIProvider(newHolder(t))
	err := p.ValidateCredentials(context.Background(), Credentials{"api_key": "bad", "base_url": srv.URL})
	if err == nil {
		t.Fatal("want error for 401 response")
	}
}

func TestOpenAIInvoke(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["model"] != "gpt-4o" {
			t.Errorf("model = %v", body["model"])
		}
		if body["temperature"] != 0.5 {
			t.Errorf("temperature = %v", body["temperature"])
		}
		if _, ok := body["stream"]; ok {
			t.Error("stream flag set on non-streaming call")
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{
				"message":       map[string]string{"role": "assistant", "content": "hi there"},
				"finish_reason": "stop",
			}},
			"usage":              map[string]int{"prompt_tokens": 7, "completion_tokens": 3, "total_tokens": 10},
			"system_fingerprint": "fp_abc",
		})
	}))
	defer srv.Close()

	p := NewOpenAIProvider(newHolder(t))
	temp := 0.5
	result, err := p.Invoke(context.Background(),
		Credentials{"api_key": "sk-test", "base_url": srv.URL},
		ModelParams{Model: "gpt-4o", Temperature: &temp},
		[]Message{{Role: "user", Content: "hello"}},
	)
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if result.Content != "hi there" {
		t.Errorf("content = %q", result.Content)
	}
	if result.Usage.TotalTokens != 10 {
		t.Errorf("total tokens = %d", result.Usage.TotalTokens)
	}
	if result.FinishReason != "stop" || result.SystemFingerprint != "fp_abc" {
		t.Errorf("finish = %q fingerprint = %q", result.FinishReason, result.SystemFingerprint)
	}
}

func TestOpenAIStreamInvoke(t *testing.T) {
	stream := strings.Join([]string{
		`data: {"choices":[{"delta":{"content":"Hel"}}]}`,
		``,
		`data: {"choices":[{"delta":{"content":""}}]}`,
		`data: not-json-at-all`,
		`data: {"choices":[{"delta":{"content":"lo"},"finish_reason":"stop"}]}`,
		`data: [DONE]`,
		`data: {"choices":[{"delta":{"content":"after done"}}]}`,
	}, "\n")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["stream"] != true {
			t.Error("stream flag missing")
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte(stream))
	}))
	defer srv.Close()

	p := NewOpenAIProvider(newHolder(t))
	var chunks []Chunk
	err := p.StreamInvoke(context.Background(),
		Credentials{"api_key": "sk-test", "base_url": srv.URL},
		ModelParams{Model: "gpt-4o"},
		[]Message{{Role: "user", Content: "hello"}},
		func(c Chunk) error {
			chunks = append(chunks, c)
			return nil
		},
	)
	if err != nil {
		t.Fatalf("stream invoke: %v", err)
	}

	if len(chunks) != 2 {
		t.Fatalf("chunks = %d, want 2: %+v", len(chunks), chunks)
	}
	if chunks[0].Content != "Hel" || chunks[1].Content != "lo" {
		t.Errorf("contents = %q %q", chunks[0].Content, chunks[1].Content)
	}
	if chunks[1].FinishReason != "stop" {
		t.Errorf("finish reason = %q", chunks[1].FinishReason)
	}
}

func TestOpenAIStreamInvokeCallbackError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`data: {"choices":[{"delta":{"content":"x"}}]}` + "\n" + `data: [DONE]` + "\n"))
	}))
	defer srv.Close()

	p := NewOpenAIProvider(newHolder(t))
	wantErr := context.Canceled
	err := p.StreamInvoke(context.Background(),
		Credentials{"api_key": "sk-test", "base_url": srv.URL},
		ModelParams{Model: "gpt-4o"}, nil,
		func(Chunk) error { return wantErr },
	)
	if err != wantErr {
		t.Fatalf("err = %v, want callback error", err)
	}
}

func TestTEIValidateCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("path = %q, want /health", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := NewTEIProvider(newHolder(t))
	if err := p.ValidateCredentials(context.Background(), Credentials{"server_url": srv.URL}); err != nil {
		t.Fatalf("validate: %v", err)
	}

	if err := p.ValidateCredentials(context.Background(), Credentials{}); err == nil {
		t.Error("want error when server_url is missing")
	}
}

func TestTEIEmbedDocuments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embed" {
			t.Errorf("path = %q, want /embed", r.URL.Path)
		}
		var body struct {
			Inputs []string `json:"inputs"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		vectors := make([][]float64, len(body.Inputs))
		for i := range vectors {
			vectors[i] = []float64{float64(i), 0.5}
		}
		json.NewEncoder(w).Encode(vectors)
	}))
	defer srv.Close()

	p := NewTEIProvider(newHolder(t))
	texts := []string{"hello world", "embedding"}
	result, err := p.EmbedDocuments(context.Background(), Credentials{"server_url": srv.URL}, texts)
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if len(result.Embeddings) != 2 {
		t.Fatalf("vectors = %d", len(result.Embeddings))
	}

	wantTokens := (len("hello world") + len("embedding")) / 4
	if result.Usage.TotalTokens != wantTokens {
		t.Errorf("tokens = %d, want %d", result.Usage.TotalTokens, wantTokens)
	}
}

func TestTEIEmbedQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([][]float64{{0.1, 0.2, 0.3}})
	}))
	defer srv.Close()

	p := NewTEIProvider(newHolder(t))
	vector, err := p.EmbedQuery(context.Background(), Credentials{"server_url": srv.URL}, "query")
	if err != nil {
		t.Fatalf("embed query: %v", err)
	}
	if len(vector) != 3 || vector[0] != 0.1 {
		t.Errorf("vector = %v", vector)
	}
}

func TestRegistryResolution(t *testing.T) {
	reg := NewRegistry(newHolder(t))

	if _, err := reg.LLM(ProviderOpenAI); err != nil {
		t.Errorf("openai llm: %v", err)
	}
	if _, err := reg.Embedding(ProviderTEI); err != nil {
		t.Errorf("tei embedding: %v", err)
	}
	if _, err := reg.LLM(ProviderTEI); err == nil {
		t.Error("tei should not serve the llm capability")
	}
	if _, err := reg.Embedding(ProviderOpenAI); err == nil {
		t.Error("openai should not serve the embedding capability")
	}
	if _, err := reg.LLM("anthropic"); err == nil {
		t.Error("unknown type should fail")
	}
}
