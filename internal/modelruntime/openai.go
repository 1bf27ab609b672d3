package modelruntime

import (
	"bufio"
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

// OpenAIProvider calls any OpenAI-compatible chat completion API.
type OpenAIProvider struct {
	holder *config.RuntimeHolder
	client *http.Client
}

func NewOpenAIProvider(holder *config.RuntimeHolder) *OpenAIProvider {
	return &OpenAIProvider{
		holder: holder,
		client: &http.Client{},
	}
}

func (p *OpenAIProvider) baseURL(creds Credentials) string {
	if u := strings.TrimSpace(creds["base_url"]); u != "" {
		return strings.TrimRight(u, "/")
	}
	return strings.TrimRight(p.holder.Current().OpenAIBaseURL, "/")
}

func (p *OpenAIProvider) timeout() time.Duration {
	return time.Duration(p.holder.Current().ChatTimeoutSeconds * float64(time.Second))
}

func (p *OpenAIProvider) newRequest(ctx context.Context, method, url string, creds Credentials, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+creds["api_key"])
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// ValidateCredentials lists models as a cheap liveness and auth check.
func (p *OpenAIProvider) ValidateCredentials(ctx context.Context, creds Credentials) error {
	_, err := p.AvailableModels(ctx, creds)
	return err
}

func (p *OpenAIProvider) AvailableModels(ctx context.Context, creds Credentials) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout())
	defer cancel()

	req, err := p.newRequest(ctx, http.MethodGet, p.baseURL(creds)+"/models", creds, nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("model list request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("model list returned status %d", resp.StatusCode)
	}

	var payload struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode model list: %w", err)
	}

	models := make([]string, 0, len(payload.Data))
	for _, m := range payload.Data {
		models = append(models, m.ID)
	}
	return models, nil
}

func (p *OpenAIProvider) Invoke(ctx context.Context, creds Credentials, params ModelParams, messages []Message) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout())
	defer cancel()

	resp, err := p.postCompletion(ctx, creds, params, messages, false)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		Choices []struct {
			Message      Message `json:"message"`
			FinishReason string  `json:"finish_reason"`
		} `json:"choices"`
		Usage             Usage  `json:"usage"`
		SystemFingerprint string `json:"system_fingerprint"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode completion: %w", err)
	}
	if len(payload.Choices) == 0 {
		return nil, fmt.Errorf("completion returned no choices")
	}

	return &Result{
		Content:           payload.Choices[0].Message.Content,
		Usage:             payload.Usage,
		FinishReason:      payload.Choices[0].FinishReason,
		SystemFingerprint: payload.SystemFingerprint,
	}, nil
}

// StreamInvoke reads the SSE stream line by line. Lines that fail to parse
// as JSON are skipped; a literal [DONE] payload ends the stream; only
// chunks with non-empty delta content reach fn.
func (p *OpenAIProvider) StreamInvoke(ctx context.Context, creds Credentials, params ModelParams, messages []Message, fn func(Chunk) error) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout())
	defer cancel()

	resp, err := p.postCompletion(ctx, creds, params, messages, true)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")
		if data == "[DONE]" {
			return nil
		}

		var payload struct {
			Choices []struct {
				Delta struct {
					Content string `json:"content"`
				} `json:"delta"`
				FinishReason string `json:"finish_reason"`
			} `json:"choices"`
		}
		if err := json.Unmarshal([]byte(data), &payload); err != nil {
			continue
		}
		if len(payload.Choices) == 0 {
			continue
		}

		choice := payload.Choices[0]
		if choice.Delta.Content == "" {
			continue
		}
		if err := fn(Chunk{Content: choice.Delta.Content, FinishReason: choice.FinishReason}); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stream: %w", err)
	}
	return nil
}

func (p *OpenAIProvider) postCompletion(ctx context.Context, creds Credentials, params ModelParams, messages []Message, stream bool) (*http.Response, error) {
	body, err := json.Marshal(params.requestBody(messages, stream))
	if err != nil {
		return nil, err
	}

	req, err := p.newRequest(ctx, http.MethodPost, p.baseURL(creds)+"/chat/completions", creds, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("completion request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, fmt.Errorf("completion returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return resp, nil
}
