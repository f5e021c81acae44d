package llm

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"github.com/dhabedank/learnstack/internal/core"
)

const (
	defaultGeminiModel   = "gemini-2.0-flash"
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
)

// GeminiAPIAdapter calls the Gemini generateContent endpoint.
type GeminiAPIAdapter struct {
	apiKey  string
	baseURL string
	client  *http.Client
	config  Config
}

type geminiRequest struct {
	Contents          []geminiContent         `json:"contents"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	Temperature     *float64 `json:"temperature,omitempty"`
	MaxOutputTokens int      `json:"maxOutputTokens,omitempty"`
}

type geminiResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
	Error      *geminiError      `json:"error,omitempty"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason,omitempty"`
}

type geminiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// NewGeminiAPIAdapter creates a Gemini adapter.
func NewGeminiAPIAdapter(config Config) (*GeminiAPIAdapter, error) {
	apiKey := config.GeminiAPIKey
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY not set")
	}

	baseURL := strings.TrimRight(config.GeminiBaseURL, "/")
	if baseURL == "" {
		baseURL = defaultGeminiBaseURL
	}

	return &GeminiAPIAdapter{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 120 * time.Second},
		config:  config,
	}, nil
}

func (a *GeminiAPIAdapter) Name() string {
	return "gemini-api"
}

func (a *GeminiAPIAdapter) IsAvailable() bool {
	return a.apiKey != ""
}

func (a *GeminiAPIAdapter) Generate(ctx context.Context, call core.Call) (string, error) {
	req := geminiRequest{
		Contents: []geminiContent{{
			Role:  "user",
			Parts: []geminiPart{{Text: call.UserPrompt}},
		}},
		GenerationConfig: &geminiGenerationConfig{
			MaxOutputTokens: a.config.maxTokensOr(0),
		},
	}
	if call.SystemPrompt != "" {
		req.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: call.SystemPrompt}}}
	}
	if a.config.Temperature != nil {
		temp := *a.config.Temperature
		req.GenerationConfig.Temperature = &temp
	}

	body, err := sonic.ConfigStd.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	model := a.config.modelOr(call.Stage, defaultGeminiModel)
	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", a.baseURL, url.PathEscape(model), url.QueryEscape(a.apiKey))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := a.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var resp geminiResponse
	decodeErr := sonic.ConfigStd.Unmarshal(respBody, &resp)
	if decodeErr == nil && resp.Error != nil {
		return "", fmt.Errorf("gemini API error: %s (code: %d)", resp.Error.Message, resp.Error.Code)
	}
	if httpResp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini API error (status %d): %s", httpResp.StatusCode, truncate(string(respBody), 200))
	}
	if decodeErr != nil {
		return "", fmt.Errorf("parse response: %w", decodeErr)
	}

	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("gemini returned no candidates")
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return sb.String(), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
