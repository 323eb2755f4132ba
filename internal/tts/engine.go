package tts

import (
	"context"
	"errors"
)

var (
	// ErrQuotaExceeded is returned when the speech API rejects a call for quota or rate limits.
	ErrQuotaExceeded = errors.New("speech API quota exceeded")
	// ErrUnauthorized is returned when the speech API rejects the credential.
	ErrUnauthorized = errors.New("speech API authentication failed")
	// ErrModelNotFound is returned when the requested model does not exist upstream.
	ErrModelNotFound = errors.New("speech model not found")
	// ErrNoAudio is returned when the speech API answers without an audio part.
	ErrNoAudio = errors.New("speech API returned no audio")
	// ErrSynthesisFailed is returned for every other synthesis failure.
	ErrSynthesisFailed = errors.New("TTS synthesis failed")
)

// SynthesizeRequest contains parameters for TTS synthesis.
type SynthesizeRequest struct {
	// Prompt is the full instruction and text sent upstream.
	Prompt string
	// Voice is the prebuilt voice name.
	Voice string
}

// AudioResult represents synthesized audio output.
type AudioResult struct {
	// Data contains a complete WAV file.
	Data []byte
	// Model is the model that produced the audio.
	Model string
	// SampleRate is the audio sample rate in Hz.
	SampleRate int
	// Channels is the number of audio channels.
	Channels int
	// PCMBytes is the size of the PCM payload inside Data.
	PCMBytes int
}

// Engine is the interface for text-to-speech synthesis.
type Engine interface {
	// Synthesize converts a prompt to WAV audio.
	Synthesize(ctx context.Context, req SynthesizeRequest) (*AudioResult, error)
	// Name returns the model identifier the engine serves.
	Name() string
}
