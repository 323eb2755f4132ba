package wav

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// riffPreambleSize covers "RIFF", the RIFF chunk size and "WAVE".
const riffPreambleSize = 12

// chunkHeaderSize is the four-byte chunk ID plus its 32-bit size.
const chunkHeaderSize = 8

var (
	// ErrNotWAV is returned when data does not start with a RIFF/WAVE header.
	ErrNotWAV = errors.New("not a WAV file")
	// ErrUnsupportedLayout is returned for WAV files whose chunks are missing,
	// truncated or out of order.
	ErrUnsupportedLayout = errors.New("unsupported WAV layout")
	// ErrNotPCM is returned when the fmt chunk names an encoding other than linear PCM.
	ErrNotPCM = errors.New("WAV audio is not linear PCM")
)

// Header is the decoded form of a WAV file's RIFF, fmt and data chunk headers.
type Header struct {
	ChunkSize   uint32
	AudioFormat uint16
	Format      Format
	// DataOffset is the index in the file where the PCM samples begin.
	DataOffset int
	DataSize   uint32
}

// IsWAV reports whether data begins with a RIFF/WAVE signature.
func IsWAV(data []byte) bool {
	return len(data) >= riffPreambleSize &&
		bytes.Equal(data[0:4], []byte("RIFF")) &&
		bytes.Equal(data[8:12], []byte("WAVE"))
}

// ParseHeader walks the chunks of a WAV file until it reaches the data chunk.
// Chunks other than fmt and data (LIST, fact, ...) are skipped, and fmt
// chunks longer than 16 bytes are accepted. Only linear PCM is supported.
func ParseHeader(data []byte) (Header, error) {
	if !IsWAV(data) {
		return Header{}, ErrNotWAV
	}

	h := Header{ChunkSize: binary.LittleEndian.Uint32(data[4:8])}
	haveFmt := false

	off := riffPreambleSize
	for {
		if len(data)-off < chunkHeaderSize {
			if !haveFmt {
				return Header{}, fmt.Errorf("%w: no fmt chunk", ErrUnsupportedLayout)
			}
			return Header{}, fmt.Errorf("%w: no data chunk", ErrUnsupportedLayout)
		}

		id := string(data[off : off+4])
		size := binary.LittleEndian.Uint32(data[off+4 : off+8])
		body := off + chunkHeaderSize
		end := uint64(body) + uint64(size)
		if end > uint64(len(data)) {
			return Header{}, fmt.Errorf("%w: %q chunk is truncated", ErrUnsupportedLayout, id)
		}

		switch id {
		case "fmt ":
			if size < fmtChunkSize {
				return Header{}, fmt.Errorf("%w: fmt chunk is %d bytes", ErrUnsupportedLayout, size)
			}
			f := data[body:]
			h.AudioFormat = binary.LittleEndian.Uint16(f[0:2])
			if h.AudioFormat != FormatPCM {
				return Header{}, fmt.Errorf("%w: format tag %d", ErrNotPCM, h.AudioFormat)
			}
			bits := binary.LittleEndian.Uint16(f[14:16])
			if bits%8 != 0 {
				return Header{}, fmt.Errorf("%w: %d bits per sample", ErrUnsupportedLayout, bits)
			}
			h.Format = Format{
				SampleRate:  int(binary.LittleEndian.Uint32(f[4:8])),
				Channels:    int(binary.LittleEndian.Uint16(f[2:4])),
				SampleWidth: int(bits / 8),
			}
			if err := h.Format.Validate(); err != nil {
				return Header{}, fmt.Errorf("%w: %v", ErrUnsupportedLayout, err)
			}
			haveFmt = true

		case "data":
			if !haveFmt {
				return Header{}, fmt.Errorf("%w: data chunk precedes fmt", ErrUnsupportedLayout)
			}
			h.DataOffset = body
			h.DataSize = size
			return h, nil
		}

		// Chunk bodies are padded to an even length.
		next := end + uint64(size&1)
		if next > uint64(len(data)) {
			next = uint64(len(data))
		}
		off = int(next)
	}
}
