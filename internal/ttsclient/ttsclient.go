package ttsclient

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"videothingy/course-engine/models"
)

const (
	defaultBaseURL = "https://api.elevenlabs.io/v1"
	defaultVoiceID = "21m00Tcm4TlvDq8ikWAM"
	defaultModel   = "eleven_multilingual_v2"
)

// SynthesisResult is the narration audio for a slide plus the
// character-level alignment the timing engine consumes.
type SynthesisResult struct {
	AudioData []byte
	Alignment *models.AlignmentData
}

// Synthesizer is the interface the narration jobs depend on, so tests and
// alternative providers can stand in for the HTTP client.
type Synthesizer interface {
	SynthesizeWithAlignment(ctx context.Context, text string) (*SynthesisResult, error)
}

// Client calls an ElevenLabs-style with-timestamps endpoint. Construct it
// once per process; it carries no per-request state.
type Client struct {
	apiKey     string
	baseURL    string
	voiceID    string
	model      string
	httpClient *http.Client
}

// NewClient creates a TTS client. voiceID may be empty to use the default
// voice.
func NewClient(apiKey, voiceID string) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("TTS API key required")
	}
	if voiceID == "" {
		voiceID = defaultVoiceID
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		voiceID:    voiceID,
		model:      defaultModel,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}, nil
}

type synthesisRequest struct {
	Text    string `json:"text"`
	ModelID string `json:"model_id"`
}

type synthesisResponse struct {
	AudioBase64 string                `json:"audio_base64"`
	Alignment   *models.AlignmentData `json:"alignment"`
}

// SynthesizeWithAlignment converts text to speech and returns the audio
// together with character-level timing data.
func (c *Client) SynthesizeWithAlignment(ctx context.Context, text string) (*SynthesisResult, error) {
	payload := synthesisRequest{Text: text, ModelID: c.model}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal synthesis request: %w", err)
	}

	url := fmt.Sprintf("%s/text-to-speech/%s/with-timestamps", c.baseURL, c.voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("TTS request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read TTS response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Printf("TTS provider returned %d: %s", resp.StatusCode, string(bodyBytes))
		return nil, fmt.Errorf("TTS provider returned %d", resp.StatusCode)
	}

	var synthResp synthesisResponse
	if err := json.Unmarshal(bodyBytes, &synthResp); err != nil {
		return nil, fmt.Errorf("failed to parse TTS response: %w", err)
	}

	audio, err := base64.StdEncoding.DecodeString(synthResp.AudioBase64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode TTS audio: %w", err)
	}

	return &SynthesisResult{AudioData: audio, Alignment: synthResp.Alignment}, nil
}
