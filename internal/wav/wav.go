// Package wav wraps raw linear PCM audio in a canonical RIFF/WAVE container.
package wav

import (
	"errors"
	"fmt"
	"math"
)

// WAV format constants.
const (
	// HeaderSize is the size of a canonical WAV file header in bytes.
	HeaderSize = 44

	// FormatPCM is the audio format code for uncompressed PCM.
	FormatPCM = 1

	// fmtChunkSize is the size of the PCM fmt subchunk body.
	fmtChunkSize = 16

	// MaxDataSize is the largest PCM payload whose RIFF chunk size still
	// fits the format's 32-bit size field.
	MaxDataSize = math.MaxUint32 - (HeaderSize - 8)
)

// Defaults for the PCM returned by the Gemini speech API.
const (
	DefaultSampleRate  = 24000
	DefaultChannels    = 1
	DefaultSampleWidth = 2
)

var (
	// ErrInvalidArgument is returned when the PCM buffer or format descriptor
	// cannot be encoded.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrPartialFrame is returned when a PCM buffer does not hold whole frames.
	ErrPartialFrame = errors.New("pcm data is not frame aligned")
)

// Format describes the layout of interleaved linear PCM samples.
type Format struct {
	// SampleRate is the number of samples per second per channel.
	SampleRate int
	// Channels is the number of interleaved channels.
	Channels int
	// SampleWidth is the number of bytes per sample per channel.
	SampleWidth int
}

// DefaultFormat is 24 kHz mono 16-bit PCM.
var DefaultFormat = Format{
	SampleRate:  DefaultSampleRate,
	Channels:    DefaultChannels,
	SampleWidth: DefaultSampleWidth,
}

// BlockAlign returns the number of bytes in one frame across all channels.
func (f Format) BlockAlign() int {
	return f.Channels * f.SampleWidth
}

// ByteRate returns the number of bytes consumed per second of playback.
func (f Format) ByteRate() int {
	return f.SampleRate * f.Channels * f.SampleWidth
}

// BitsPerSample returns the sample width in bits.
func (f Format) BitsPerSample() int {
	return f.SampleWidth * 8
}

// Validate checks that every field is positive and that the derived header
// fields fit their fixed widths.
func (f Format) Validate() error {
	if f.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate must be positive, got %d", ErrInvalidArgument, f.SampleRate)
	}
	if f.Channels <= 0 {
		return fmt.Errorf("%w: channels must be positive, got %d", ErrInvalidArgument, f.Channels)
	}
	if f.SampleWidth <= 0 {
		return fmt.Errorf("%w: sample width must be positive, got %d", ErrInvalidArgument, f.SampleWidth)
	}

	// Compare in uint64 so the products cannot overflow on 32-bit platforms.
	rate := uint64(f.SampleRate)
	channels := uint64(f.Channels)
	width := uint64(f.SampleWidth)

	if channels > math.MaxUint16 {
		return fmt.Errorf("%w: channels %d exceeds 16-bit field", ErrInvalidArgument, f.Channels)
	}
	if channels*width > math.MaxUint16 {
		return fmt.Errorf("%w: block align %d exceeds 16-bit field", ErrInvalidArgument, channels*width)
	}
	if width*8 > math.MaxUint16 {
		return fmt.Errorf("%w: bits per sample %d exceeds 16-bit field", ErrInvalidArgument, width*8)
	}
	if rate > math.MaxUint32 {
		return fmt.Errorf("%w: sample rate %d exceeds 32-bit field", ErrInvalidArgument, f.SampleRate)
	}
	if rate*channels*width > math.MaxUint32 {
		return fmt.Errorf("%w: byte rate %d exceeds 32-bit field", ErrInvalidArgument, rate*channels*width)
	}

	return nil
}

// Encode wraps raw PCM data in a canonical 44-byte WAV header.
// Parameters:
//   - pcm: interleaved linear PCM bytes, copied verbatim (nil is rejected)
//   - sampleRate: samples per second per channel (e.g., 24000)
//   - channels: number of interleaved channels (1=mono, 2=stereo)
//   - sampleWidth: bytes per sample per channel (2 for 16-bit)
//
// The PCM content is not inspected; the caller's format is trusted.
// Returns a buffer of exactly HeaderSize+len(pcm) bytes, or an error wrapping
// ErrInvalidArgument and no buffer.
func Encode(pcm []byte, sampleRate, channels, sampleWidth int) ([]byte, error) {
	return EncodeFormat(pcm, Format{
		SampleRate:  sampleRate,
		Channels:    channels,
		SampleWidth: sampleWidth,
	})
}

// EncodeFormat is Encode with the format given as a Format value.
func EncodeFormat(pcm []byte, f Format) ([]byte, error) {
	if pcm == nil {
		return nil, fmt.Errorf("%w: pcm buffer is nil", ErrInvalidArgument)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	if uint64(len(pcm)) > MaxDataSize {
		return nil, fmt.Errorf("%w: pcm length %d exceeds 32-bit size field", ErrInvalidArgument, len(pcm))
	}

	out := make([]byte, HeaderSize+len(pcm))
	putHeader(out[:HeaderSize], f, uint32(len(pcm)))
	copy(out[HeaderSize:], pcm)

	return out, nil
}

// putHeader writes the canonical header for a data chunk of dataSize bytes.
// f must already be validated.
func putHeader(header []byte, f Format, dataSize uint32) {
	// RIFF header
	copy(header[0:4], "RIFF")
	PutLE32(header[4:8], dataSize+(HeaderSize-8))
	copy(header[8:12], "WAVE")

	// fmt subchunk
	copy(header[12:16], "fmt ")
	PutLE32(header[16:20], fmtChunkSize)
	PutLE16(header[20:22], FormatPCM)
	PutLE16(header[22:24], uint16(f.Channels))
	PutLE32(header[24:28], uint32(f.SampleRate))
	PutLE32(header[28:32], uint32(f.ByteRate()))
	PutLE16(header[32:34], uint16(f.BlockAlign()))
	PutLE16(header[34:36], uint16(f.BitsPerSample()))

	// data subchunk
	copy(header[36:40], "data")
	PutLE32(header[40:44], dataSize)
}

// CheckFrameAlignment reports ErrPartialFrame when pcm does not hold a whole
// number of frames for f. Encode does not call it.
func CheckFrameAlignment(pcm []byte, f Format) error {
	if err := f.Validate(); err != nil {
		return err
	}
	if rem := len(pcm) % f.BlockAlign(); rem != 0 {
		return fmt.Errorf("%w: %d trailing bytes for block align %d", ErrPartialFrame, rem, f.BlockAlign())
	}
	return nil
}

// PutLE16 writes a uint16 value in little-endian format to a byte slice.
func PutLE16(b []byte, v uint16) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
}

// PutLE32 writes a uint32 value in little-endian format to a byte slice.
func PutLE32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

// Silence returns a WAV file holding numFrames frames of zeroed PCM.
func Silence(numFrames int, f Format) ([]byte, error) {
	if numFrames < 0 {
		return nil, fmt.Errorf("%w: frame count must be non-negative, got %d", ErrInvalidArgument, numFrames)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	if uint64(numFrames) > MaxDataSize/uint64(f.BlockAlign()) {
		return nil, fmt.Errorf("%w: %d frames exceed 32-bit size field", ErrInvalidArgument, numFrames)
	}
	return EncodeFormat(make([]byte, numFrames*f.BlockAlign()), f)
}
