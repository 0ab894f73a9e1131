package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"
	defaultModel   = "gemini-2.5-flash-lite"

	defaultMaxOutputTokens = 2048
	defaultTemperature     = 0.2
)

// Client wraps the HTTP text-generation provider. Construct it once per
// process and share it across slides; it carries no per-request state.
type Client struct {
	apiKey      string
	baseURL     string
	model       string
	maxTokens   int
	temperature float64
	httpClient  *http.Client
}

// NewClient creates a new text-generation client. model may be empty to
// use the default model selection.
func NewClient(apiKey, model string) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("text generation API key required")
	}
	if model == "" {
		model = defaultModel
	}
	return &Client{
		apiKey:      apiKey,
		baseURL:     defaultBaseURL,
		model:       model,
		maxTokens:   defaultMaxOutputTokens,
		temperature: defaultTemperature,
		httpClient:  &http.Client{Timeout: 60 * time.Second},
	}, nil
}

// generateContent request/response shapes for the Gemini-style API.
type generatePart struct {
	Text string `json:"text"`
}

type generateContent struct {
	Parts []generatePart `json:"parts"`
}

type generateRequest struct {
	Contents         []generateContent `json:"contents"`
	GenerationConfig struct {
		Temperature     float64 `json:"temperature"`
		MaxOutputTokens int     `json:"maxOutputTokens"`
	} `json:"generationConfig"`
	Labels map[string]string `json:"labels,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []generatePart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// GenerateText sends the prompt to the provider and returns the raw text
// of the first candidate. tags are attached as request labels for
// telemetry and may be nil.
func (c *Client) GenerateText(ctx context.Context, prompt string, tags map[string]string) (string, error) {
	payload := generateRequest{
		Contents: []generateContent{{Parts: []generatePart{{Text: prompt}}}},
		Labels:   tags,
	}
	payload.GenerationConfig.Temperature = c.temperature
	payload.GenerationConfig.MaxOutputTokens = c.maxTokens

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal generation request: %w", err)
	}

	url := fmt.Sprintf("%s/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("text generation request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read generation response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Printf("Text generation provider returned %d: %s", resp.StatusCode, string(bodyBytes))
		return "", fmt.Errorf("text generation provider returned %d", resp.StatusCode)
	}

	var genResp generateResponse
	if err := json.Unmarshal(bodyBytes, &genResp); err != nil {
		return "", fmt.Errorf("failed to parse generation response structure: %w", err)
	}
	if len(genResp.Candidates) == 0 || len(genResp.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("no candidates in generation response")
	}

	return genResp.Candidates[0].Content.Parts[0].Text, nil
}
