// Package client talks to the speech service over HTTP and decodes the
// audio it returns.
package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	gowav "github.com/go-audio/wav"

	"github.com/dgnsrekt/geminivoice/internal/api"
	"github.com/dgnsrekt/geminivoice/internal/wav"
)

// maxResponseBytes bounds how much of a service response is read.
const maxResponseBytes = 128 << 20

// ErrUnexpectedFileType is returned when the service sends something other than WAV.
var ErrUnexpectedFileType = errors.New("unexpected file type")

// APIError is returned for non-2xx responses from the service.
type APIError struct {
	Status    int
	Message   string
	RequestID string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("speech service returned %d: %s", e.Status, e.Message)
}

// SpeakResult is a decoded /api/tts response.
type SpeakResult struct {
	// WAV is the audio file decoded from file_data.
	WAV            []byte
	ModelUsed      string
	ExpressionUsed string
	TextLength     int
	RequestID      string
}

// Header parses the WAV header of the result.
func (r *SpeakResult) Header() (wav.Header, error) {
	return wav.ParseHeader(r.WAV)
}

// Duration returns the playback length of the audio.
func (r *SpeakResult) Duration() (time.Duration, error) {
	dec := gowav.NewDecoder(bytes.NewReader(r.WAV))
	if !dec.IsValidFile() {
		return 0, wav.ErrNotWAV
	}
	if err := dec.FwdToPCM(); err != nil {
		return 0, fmt.Errorf("failed to locate PCM data: %w", err)
	}

	byteRate := int64(dec.SampleRate) * int64(dec.NumChans) * int64(dec.BitDepth) / 8
	if byteRate == 0 {
		return 0, wav.ErrUnsupportedLayout
	}
	return time.Duration(dec.PCMLen() * int64(time.Second) / byteRate), nil
}

// Client calls the speech service.
type Client struct {
	cfg        *Config
	logger     *slog.Logger
	httpClient *http.Client
}

// New creates a new client.
func New(cfg *Config, logger *slog.Logger) *Client {
	return &Client{
		cfg:    cfg,
		logger: logger,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Speak asks the service to synthesize req and returns the decoded audio.
func (c *Client) Speak(ctx context.Context, req api.TTSRequest) (*SpeakResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var resp api.TTSResponse
	requestID, err := c.do(ctx, http.MethodPost, "/api/tts", bytes.NewReader(body), &resp)
	if err != nil {
		return nil, err
	}

	if resp.FileType != api.WAVFileType {
		return nil, fmt.Errorf("%w: %q", ErrUnexpectedFileType, resp.FileType)
	}

	data, err := base64.StdEncoding.DecodeString(resp.FileData)
	if err != nil {
		return nil, fmt.Errorf("failed to decode file_data: %w", err)
	}

	c.logger.Debug("speech received",
		"request_id", requestID,
		"model", resp.ModelUsed,
		"expression", resp.ExpressionUsed,
		"wav_bytes", len(data),
	)

	return &SpeakResult{
		WAV:            data,
		ModelUsed:      resp.ModelUsed,
		ExpressionUsed: resp.ExpressionUsed,
		TextLength:     resp.TextLength,
		RequestID:      requestID,
	}, nil
}

// Voices fetches the service's voice and expression catalog.
func (c *Client) Voices(ctx context.Context) (*api.VoicesResponse, error) {
	var resp api.VoicesResponse
	if _, err := c.do(ctx, http.MethodGet, "/api/voices", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// do sends a request and decodes a JSON response into out. It returns the
// request ID the service assigned.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, out any) (string, error) {
	url := strings.TrimSuffix(c.cfg.APIURL, "/") + path

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cfg.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.BearerToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	requestID := resp.Header.Get(api.RequestIDHeader)
	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return requestID, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode, RequestID: requestID}
		var errResp api.ErrorResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			apiErr.Message = errResp.Error
		} else {
			apiErr.Message = strings.TrimSpace(string(respBody))
		}
		return requestID, apiErr
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return requestID, fmt.Errorf("failed to decode response: %w", err)
	}

	return requestID, nil
}
