// Package speech provides the speech synthesis adapter for the
// lesson-service pipeline.
//
// The HTTP client talks to an ElevenLabs-compatible endpoint; the
// Synthesizer wraps it so that every synthesis call leaves a playable audio
// file on disk regardless of credentials or backend availability.
package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// API endpoints and paths.
const (
	apiTextToSpeech = "/v1/text-to-speech/"
)

// HTTP headers.
const (
	headerContentType = "Content-Type"
	headerAccept      = "Accept"
	headerAPIKey      = "xi-api-key"
	contentTypeJSON   = "application/json"
	contentTypeMPEG   = "audio/mpeg"
)

// Error messages.
const (
	errTextCannotBeEmpty     = "text cannot be empty"
	errVoiceCannotBeEmpty    = "voice id cannot be empty"
	errReceivedEmptyAudio    = "received empty audio data"
	errFmtServiceError       = "speech service error (%s): %s"
	errFmtServiceNonOKStatus = "speech service returned non-OK status: %s, body: %s"
)

// HTTPClient is a client for an ElevenLabs-compatible speech synthesis
// service. It encapsulates the HTTP configuration, credentials, and the
// model and output format applied to every request.
type HTTPClient struct {
	httpClient   *http.Client
	baseURL      string
	apiKey       string
	modelID      string
	outputFormat string
}

// synthesisRequest is the JSON payload for a text-to-speech request.
type synthesisRequest struct {
	Text    string `json:"text"`
	ModelID string `json:"model_id"`
}

// serviceErrorResponse is the structured error body the service returns on
// failed requests.
type serviceErrorResponse struct {
	Detail json.RawMessage `json:"detail"`
}

// NewHTTPClient creates and configures a speech synthesis client. The
// baseURL should include the protocol (e.g. "https://api.elevenlabs.io").
func NewHTTPClient(baseURL, apiKey, modelID, outputFormat string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL:      baseURL,
		apiKey:       apiKey,
		modelID:      modelID,
		outputFormat: outputFormat,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// GenerateSpeech sends a synthesis request for the given voice and returns
// the raw MP3 audio data.
func (c *HTTPClient) GenerateSpeech(ctx context.Context, text, voiceID string) ([]byte, error) {
	if text == "" {
		return nil, errors.New(errTextCannotBeEmpty)
	}

	if voiceID == "" {
		return nil, errors.New(errVoiceCannotBeEmpty)
	}

	requestBody, err := json.Marshal(synthesisRequest{
		Text:    text,
		ModelID: c.modelID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	requestURL := c.baseURL + apiTextToSpeech + url.PathEscape(voiceID)
	if c.outputFormat != "" {
		requestURL += "?output_format=" + url.QueryEscape(c.outputFormat)
	}

	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		requestURL,
		bytes.NewBuffer(requestBody),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set(headerContentType, contentTypeJSON)
	httpReq.Header.Set(headerAccept, contentTypeMPEG)
	httpReq.Header.Set(headerAPIKey, c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf(
			"failed to send request to speech service at %s: %w",
			c.baseURL,
			err,
		)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseErrorResponse(resp)
	}

	audioData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio data: %w", err)
	}

	if len(audioData) == 0 {
		return nil, errors.New(errReceivedEmptyAudio)
	}

	return audioData, nil
}

// parseErrorResponse attempts to decode a structured JSON error from the
// service, falling back to the raw response body so diagnostics are
// preserved.
func (c *HTTPClient) parseErrorResponse(resp *http.Response) error {
	var errorResp serviceErrorResponse

	err := json.NewDecoder(resp.Body).Decode(&errorResp)
	if err == nil && len(errorResp.Detail) > 0 {
		return fmt.Errorf(errFmtServiceError, resp.Status, string(errorResp.Detail))
	}

	body, _ := io.ReadAll(resp.Body)

	return fmt.Errorf(
		errFmtServiceNonOKStatus,
		resp.Status,
		string(body),
	)
}
