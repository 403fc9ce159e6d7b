package narrator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com"
	defaultModel   = "gemini-3-flash-preview"
	defaultTimeout = 30 * time.Second

	maxErrorBody = 4096
)

// ErrNoAPIKey is returned when the client is used without credentials.
var ErrNoAPIKey = errors.New("narrator api key is not configured")

// Config holds configuration for the Gemini narrator.
type Config struct {
	BaseURL     string
	Model       string
	APIKey      string
	Timeout     time.Duration // Per-call deadline, applied on top of the caller context
	Temperature float64       // Used for directive explanations
	HTTPClient  *http.Client
}

// GeminiClient implements port.Narrator over the generateContent REST API.
type GeminiClient struct {
	baseURL     string
	model       string
	apiKey      string
	timeout     time.Duration
	temperature float64
	client      *http.Client
}

// NewGeminiClient creates a new client. An empty API key is allowed: every
// call then fails fast with ErrNoAPIKey and the console shows fallbacks.
func NewGeminiClient(cfg Config) *GeminiClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}

	return &GeminiClient{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		model:       cfg.Model,
		apiKey:      cfg.APIKey,
		timeout:     cfg.Timeout,
		temperature: cfg.Temperature,
		client:      cfg.HTTPClient,
	}
}

// Analyze produces the predictive trend analysis for a telemetry digest.
func (c *GeminiClient) Analyze(ctx context.Context, trendDigest string) (string, error) {
	return c.generate(ctx, analysisPrompt(trendDigest), nil)
}

// Diagnose produces a root cause analysis for the anomaly symptoms.
func (c *GeminiClient) Diagnose(ctx context.Context, symptoms string) (string, error) {
	return c.generate(ctx, diagnosticPrompt(symptoms), nil)
}

// Summarize produces the shift handover report.
func (c *GeminiClient) Summarize(ctx context.Context, dataSummary string) (string, error) {
	return c.generate(ctx, handoverPrompt(dataSummary), nil)
}

// Explain produces a technical briefing for a directive.
func (c *GeminiClient) Explain(ctx context.Context, description, plantContext string) (string, error) {
	temperature := c.temperature
	return c.generate(ctx, explanationPrompt(description, plantContext), &temperature)
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	Temperature *float64 `json:"temperature,omitempty"`
}

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
}

func (c *GeminiClient) generate(ctx context.Context, prompt string, temperature *float64) (string, error) {
	if c.apiKey == "" {
		return "", ErrNoAPIKey
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload := generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
	}
	if temperature != nil {
		payload.GenerationConfig = &generationConfig{Temperature: temperature}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", fmt.Errorf("narrator API returned %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var result generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	if result.PromptFeedback != nil && result.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("prompt blocked: %s", result.PromptFeedback.BlockReason)
	}
	if len(result.Candidates) == 0 {
		return "", errors.New("narrator returned no candidates")
	}

	var sb strings.Builder
	for _, p := range result.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", errors.New("narrator returned empty text")
	}
	return text, nil
}
