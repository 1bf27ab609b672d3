package modelruntime

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/craftwork/polaris/internal/config"
)

// TEIProvider calls a text-embeddings-inference server.
type TEIProvider struct {
	holder *config.RuntimeHolder
	client *http.Client
}

func NewTEIProvider(holder *config.RuntimeHolder) *TEIProvider {
	return &TEIProvider{
		holder: holder,
		client: &http.Client{},
	}
}

func (p *TEIProvider) baseURL(creds Credentials) string {
	return strings.TrimRight(strings.TrimSpace(creds["server_url"]), "/")
}

func (p *TEIProvider) timeout() time.Duration {
	return time.Duration(p.holder.Current().EmbedTimeoutSeconds * float64(time.Second))
}

// ValidateCredentials hits the server's health endpoint.
func (p *TEIProvider) ValidateCredentials(ctx context.Context, creds Credentials) error {
	base := p.baseURL(creds)
	if base == "" {
		return fmt.Errorf("server_url is required")
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/health", nil)
	if err != nil {
		return err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}
	return nil
}

// AvailableModels returns the single model the server was started with, as
// reported by its info endpoint.
func (p *TEIProvider) AvailableModels(ctx context.Context, creds Credentials) ([]string, error) {
	base := p.baseURL(creds)
	if base == "" {
		return nil, fmt.Errorf("server_url is required")
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/info", nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("info request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("info returned status %d", resp.StatusCode)
	}

	var payload struct {
		ModelID string `json:"model_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode info: %w", err)
	}
	if payload.ModelID == "" {
		return nil, nil
	}
	return []string{payload.ModelID}, nil
}

func (p *TEIProvider) EmbedDocuments(ctx context.Context, creds Credentials, texts []string) (*EmbeddingResult, error) {
	base := p.baseURL(creds)
	if base == "" {
		return nil, fmt.Errorf("server_url is required")
	}
	if len(texts) == 0 {
		return &EmbeddingResult{Embeddings: [][]float64{}}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout())
	defer cancel()

	body, err := json.Marshal(map[string]any{"inputs": texts})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/embed", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embed request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("embed returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var embeddings [][]float64
	if err := json.NewDecoder(resp.Body).Decode(&embeddings); err != nil {
		return nil, fmt.Errorf("decode embeddings: %w", err)
	}
	if len(embeddings) != len(texts) {
		return nil, fmt.Errorf("embed returned %d vectors for %d inputs", len(embeddings), len(texts))
	}

	// The server does not report token usage; approximate with a
	// four-characters-per-token heuristic.
	chars := 0
	for _, t := range texts {
		chars += len(t)
	}
	tokens := chars / 4

	return &EmbeddingResult{
		Embeddings: embeddings,
		Usage:      Usage{PromptTokens: tokens, TotalTokens: tokens},
	}, nil
}

// EmbedQuery embeds a single text and returns its vector.
func (p *TEIProvider) EmbedQuery(ctx context.Context, creds Credentials, text string) ([]float64, error) {
	result, err := p.EmbedDocuments(ctx, creds, []string{text})
	if err != nil {
		return nil, err
	}
	if len(result.Embeddings) == 0 {
		return nil, fmt.Errorf("embed returned no vectors")
	}
	return result.Embeddings[0], nil
}
