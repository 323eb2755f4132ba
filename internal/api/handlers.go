package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/dgnsrekt/geminivoice/internal/config"
	"github.com/dgnsrekt/geminivoice/internal/tts"
	"github.com/dgnsrekt/geminivoice/internal/wav"
)

// maxBodyBytes caps the size of a TTS request body.
const maxBodyBytes = 1 << 20

// WAVFileType is the file_type reported for synthesized audio.
const WAVFileType = "audio/wav"

// TTSRequest represents the request body for /api/tts.
type TTSRequest struct {
	Text       string `json:"text"`
	Voice      string `json:"voice,omitempty"`
	Expression string `json:"expression,omitempty"`
	Model      string `json:"model,omitempty"`
}

// TTSResponse represents the response body for /api/tts.
type TTSResponse struct {
	FileType       string `json:"file_type"`
	FileData       string `json:"file_data"`
	ModelUsed      string `json:"model_used"`
	ExpressionUsed string `json:"expression_used"`
	TextLength     int    `json:"text_length"`
}

// VoicesResponse represents the response body for /api/voices.
type VoicesResponse struct {
	Voices            []config.Voice      `json:"voices"`
	Expressions       []config.Expression `json:"expressions"`
	DefaultVoice      string              `json:"default_voice"`
	DefaultExpression string              `json:"default_expression"`
	Models            []string            `json:"models"`
	DefaultModel      string              `json:"default_model"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse represents the response body for /v1/healthz.
type HealthResponse struct {
	Status string `json:"status"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// handleHealthz handles GET /v1/healthz requests.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// handleVoices handles GET /api/voices requests.
func (s *Server) handleVoices(w http.ResponseWriter, r *http.Request) {
	resp := VoicesResponse{
		Voices:            s.catalog.Voices(),
		Expressions:       s.catalog.Expressions(),
		DefaultVoice:      s.catalog.DefaultVoice(),
		DefaultExpression: s.catalog.DefaultExpression(),
		Models:            s.registry.List(),
	}
	if def, err := s.registry.Default(); err == nil {
		resp.DefaultModel = def.Name()
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleTTS handles POST /api/tts requests.
func (s *Server) handleTTS(w http.ResponseWriter, r *http.Request) {
	logger := s.logger.With("request_id", requestID(r.Context()))

	var req TTSRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		logger.Warn("failed to decode tts request", "error", err)
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	// Validate text is present
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	// Validate text length in characters
	textLength := utf8.RuneCountInString(req.Text)
	if textLength > s.cfg.MaxTextLength {
		logger.Warn("text exceeds max length", "length", textLength, "max", s.cfg.MaxTextLength)
		writeError(w, http.StatusBadRequest, "text exceeds maximum length")
		return
	}

	voiceName := req.Voice
	if voiceName == "" {
		voiceName = s.catalog.DefaultVoice()
	}
	voice, ok := s.catalog.LookupVoice(voiceName)
	if !ok {
		writeError(w, http.StatusBadRequest, "unsupported voice")
		return
	}

	exprName := req.Expression
	if exprName == "" {
		exprName = s.catalog.DefaultExpression()
	}
	expr, ok := s.catalog.LookupExpression(exprName)
	if !ok {
		writeError(w, http.StatusBadRequest, "unsupported expression")
		return
	}

	if !s.cfg.UpstreamConfigured() || len(s.registry.List()) == 0 {
		logger.Error("speech API credential or model not configured")
		writeError(w, http.StatusInternalServerError, "server is not configured")
		return
	}

	engine, err := s.registry.Resolve(req.Model)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unsupported model")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.UpstreamTimeout)
	defer cancel()

	result, err := engine.Synthesize(ctx, tts.SynthesizeRequest{
		Prompt: tts.BuildPrompt(s.catalog.Accent(), expr.Instruction, req.Text),
		Voice:  voice.Name,
	})
	if err != nil {
		status, msg := synthesisErrorStatus(err)
		logger.Error("speech synthesis failed",
			"model", engine.Name(),
			"voice", voice.Name,
			"status", status,
			"error", err,
		)
		writeError(w, status, msg)
		return
	}

	logger.Info("speech synthesized",
		"model", result.Model,
		"voice", voice.Name,
		"expression", expr.Name,
		"text_length", textLength,
		"wav_bytes", len(result.Data),
	)

	writeJSON(w, http.StatusOK, TTSResponse{
		FileType:       WAVFileType,
		FileData:       base64.StdEncoding.EncodeToString(result.Data),
		ModelUsed:      result.Model,
		ExpressionUsed: expr.Name,
		TextLength:     textLength,
	})
}

// synthesisErrorStatus maps a synthesis error to an HTTP status and a short
// client-facing message.
func synthesisErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, tts.ErrQuotaExceeded):
		return http.StatusTooManyRequests, "speech API quota exceeded, try again later"
	case errors.Is(err, tts.ErrUnauthorized):
		return http.StatusUnauthorized, "speech API authentication failed"
	case errors.Is(err, tts.ErrModelNotFound):
		return http.StatusNotFound, "speech model not found"
	case errors.Is(err, wav.ErrInvalidArgument):
		return http.StatusBadRequest, "invalid audio format"
	default:
		return http.StatusInternalServerError, "speech generation failed"
	}
}
