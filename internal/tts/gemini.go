package tts

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
	"net/url"
	"strings"
	"time"

	"github.com/dgnsrekt/geminivoice/internal/wav"
)

// maxResponseBytes bounds how much of an upstream response is read.
const maxResponseBytes = 64 << 20

var (
	// ErrNoAPIKey is returned when no API key is configured.
	ErrNoAPIKey = errors.New("no speech API key specified")
	// ErrNoModel is returned when no model is configured.
	ErrNoModel = errors.New("no speech model specified")
)

// GeminiConfig holds configuration for the Gemini speech engine.
type GeminiConfig struct {
	// APIKey is the Gemini API credential.
	APIKey string
	// Model is the speech model identifier, e.g. gemini-2.5-flash-preview-tts.
	Model string
	// BaseURL is the API root, e.g. https://generativelanguage.googleapis.com/v1beta.
	BaseURL string
	// Timeout bounds each call when the caller's context has no deadline.
	Timeout time.Duration
	// Format describes the PCM the API returns.
	Format wav.Format
	// HTTPClient overrides the default client.
	HTTPClient *http.Client
}

// GeminiEngine implements the Engine interface using the Gemini
// generateContent endpoint with audio output.
type GeminiEngine struct {
	config GeminiConfig
	client *http.Client
	logger *slog.Logger
}

// NewGeminiEngine creates a new Gemini speech engine.
func NewGeminiEngine(cfg GeminiConfig, logger *slog.Logger) (*GeminiEngine, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	if cfg.Model == "" {
		return nil, ErrNoModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.Format == (wav.Format{}) {
		cfg.Format = wav.DefaultFormat
	}
	if err := cfg.Format.Validate(); err != nil {
		return nil, err
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}

	return &GeminiEngine{
		config: cfg,
		client: client,
		logger: logger,
	}, nil
}

// Name returns the model identifier.
func (g *GeminiEngine) Name() string {
	return g.config.Model
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type generationConfig struct {
	ResponseModalities []string      `json:"responseModalities"`
	SpeechConfig       *speechConfig `json:"speechConfig,omitempty"`
}

type speechConfig struct {
	VoiceConfig voiceConfig `json:"voiceConfig"`
}

type voiceConfig struct {
	PrebuiltVoiceConfig prebuiltVoiceConfig `json:"prebuiltVoiceConfig"`
}

type prebuiltVoiceConfig struct {
	VoiceName string `json:"voiceName"`
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

type errorEnvelope struct {
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Synthesize converts a prompt to audio using the Gemini speech API.
func (g *GeminiEngine) Synthesize(ctx context.Context, req SynthesizeRequest) (*AudioResult, error) {
	if req.Prompt == "" {
		return nil, errors.New("empty prompt")
	}

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: req.Prompt}}}},
		GenerationConfig: generationConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig: &speechConfig{
				VoiceConfig: voiceConfig{
					PrebuiltVoiceConfig: prebuiltVoiceConfig{VoiceName: req.Voice},
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: encoding request: %v", ErrSynthesisFailed, err)
	}

	// Adopt the caller's deadline or fall back to the configured timeout.
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.config.Timeout)
		defer cancel()
	}

	endpoint := strings.TrimRight(g.config.BaseURL, "/") + "/models/" + url.PathEscape(g.config.Model) + ":generateContent"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSynthesisFailed, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", g.config.APIKey)

	g.logger.Debug("calling speech API",
		"model", g.config.Model,
		"voice", req.Voice,
		"prompt_length", len(req.Prompt),
	)

	start := time.Now()
	resp, err := g.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrSynthesisFailed, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrSynthesisFailed, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, g.upstreamError(resp.StatusCode, respBody)
	}

	var parsed generateResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ErrSynthesisFailed, err)
	}

	audio, err := extractAudio(parsed)
	if err != nil {
		return nil, err
	}

	result, err := g.wrap(audio)
	if err != nil {
		return nil, err
	}

	g.logger.Debug("speech synthesis complete",
		"model", g.config.Model,
		"pcm_bytes", result.PCMBytes,
		"duration", time.Since(start),
	)

	return result, nil
}

// wrap turns decoded upstream audio into a WAV AudioResult. Audio that is
// already a linear PCM WAV file, extra chunks included, is passed through
// unchanged.
func (g *GeminiEngine) wrap(audio []byte) (*AudioResult, error) {
	if wav.IsWAV(audio) {
		h, err := wav.ParseHeader(audio)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSynthesisFailed, err)
		}
		return &AudioResult{
			Data:       audio,
			Model:      g.config.Model,
			SampleRate: h.Format.SampleRate,
			Channels:   h.Format.Channels,
			PCMBytes:   int(h.DataSize),
		}, nil
	}

	if err := wav.CheckFrameAlignment(audio, g.config.Format); err != nil {
		g.logger.Warn("speech API returned partial frame", "bytes", len(audio), "error", err)
	}

	data, err := wav.EncodeFormat(audio, g.config.Format)
	if err != nil {
		return nil, err
	}

	return &AudioResult{
		Data:       data,
		Model:      g.config.Model,
		SampleRate: g.config.Format.SampleRate,
		Channels:   g.config.Format.Channels,
		PCMBytes:   len(audio),
	}, nil
}

// upstreamError maps a non-200 response to one of the package errors.
func (g *GeminiEngine) upstreamError(statusCode int, body []byte) error {
	var env errorEnvelope
	var apiStatus, message string
	if json.Unmarshal(body, &env) == nil && env.Error != nil {
		apiStatus = env.Error.Status
		message = env.Error.Message
	}

	g.logger.Warn("speech API error",
		"status_code", statusCode,
		"api_status", apiStatus,
		"message", message,
	)

	return fmt.Errorf("%w: status %d %s", classify(statusCode, apiStatus, message), statusCode, apiStatus)
}

// classify picks the sentinel error for an upstream failure.
func classify(statusCode int, apiStatus, message string) error {
	msg := strings.ToLower(message)
	switch {
	case statusCode == http.StatusTooManyRequests || apiStatus == "RESOURCE_EXHAUSTED" || strings.Contains(msg, "quota"):
		return ErrQuotaExceeded
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden ||
		apiStatus == "UNAUTHENTICATED" || apiStatus == "PERMISSION_DENIED" || strings.Contains(msg, "api key"):
		return ErrUnauthorized
	case statusCode == http.StatusNotFound || apiStatus == "NOT_FOUND":
		return ErrModelNotFound
	default:
		return ErrSynthesisFailed
	}
}

// extractAudio returns the decoded bytes of the first inline audio part.
func extractAudio(resp generateResponse) ([]byte, error) {
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return nil, fmt.Errorf("%w: prompt blocked: %s", ErrNoAudio, resp.PromptFeedback.BlockReason)
	}

	for _, c := range resp.Candidates {
		for _, p := range c.Content.Parts {
			if p.InlineData == nil || p.InlineData.Data == "" {
				continue
			}
			audio, err := decodeBase64(p.InlineData.Data)
			if err != nil {
				return nil, fmt.Errorf("%w: decoding audio: %v", ErrSynthesisFailed, err)
			}
			return audio, nil
		}
	}

	return nil, ErrNoAudio
}

// decodeBase64 accepts padded and unpadded standard encodings.
func decodeBase64(s string) ([]byte, error) {
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.RawStdEncoding.DecodeString(s)
}
