package tts

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"

	"github.com/dgnsrekt/geminivoice/internal/wav"
)

// mockEngine is a test implementation of Engine.
type mockEngine struct {
	name string
}

func (m *mockEngine) Name() string {
	return m.name
}

func (m *mockEngine) Synthesize(ctx context.Context, req SynthesizeRequest) (*AudioResult, error) {
	data, err := wav.Silence(10, wav.DefaultFormat)
	if err != nil {
		return nil, err
	}
	return &AudioResult{
		Data:       data,
		Model:      m.name,
		SampleRate: wav.DefaultSampleRate,
		Channels:   wav.DefaultChannels,
		PCMBytes:   len(data) - wav.HeaderSize,
	}, nil
}

func TestRegistry_Register(t *testing.T) {
	reg := NewRegistry()

	if err := reg.Register(&mockEngine{name: "flash-tts"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := reg.Get("flash-tts")
	if err != nil {
		t.Fatalf("failed to get engine: %v", err)
	}
	if got.Name() != "flash-tts" {
		t.Errorf("expected name 'flash-tts', got '%s'", got.Name())
	}
}

func TestRegistry_RegisterDuplicate(t *testing.T) {
	reg := NewRegistry()
	engine := &mockEngine{name: "flash-tts"}

	if err := reg.Register(engine); err != nil {
		t.Fatalf("first register failed: %v", err)
	}

	if err := reg.Register(engine); !errors.Is(err, ErrEngineExists) {
		t.Errorf("expected ErrEngineExists, got %v", err)
	}
}

func TestRegistry_GetNotFound(t *testing.T) {
	reg := NewRegistry()

	if _, err := reg.Get("nonexistent"); !errors.Is(err, ErrEngineNotFound) {
		t.Errorf("expected ErrEngineNotFound, got %v", err)
	}
}

func TestRegistry_Default(t *testing.T) {
	reg := NewRegistry()

	// No default initially
	if _, err := reg.Default(); !errors.Is(err, ErrEngineNotFound) {
		t.Errorf("expected ErrEngineNotFound for empty registry, got %v", err)
	}

	// First engine becomes default
	if err := reg.Register(&mockEngine{name: "first"}); err != nil {
		t.Fatalf("failed to register: %v", err)
	}
	if err := reg.Register(&mockEngine{name: "second"}); err != nil {
		t.Fatalf("failed to register second: %v", err)
	}

	def, err := reg.Default()
	if err != nil {
		t.Fatalf("failed to get default: %v", err)
	}
	if def.Name() != "first" {
		t.Errorf("expected default 'first', got '%s'", def.Name())
	}

	if err := reg.SetDefault("second"); err != nil {
		t.Fatalf("failed to set default: %v", err)
	}
	def, _ = reg.Default()
	if def.Name() != "second" {
		t.Errorf("expected default 'second', got '%s'", def.Name())
	}

	if err := reg.SetDefault("nonexistent"); !errors.Is(err, ErrEngineNotFound) {
		t.Errorf("expected ErrEngineNotFound, got %v", err)
	}
}

func TestRegistry_Resolve(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&mockEngine{name: "flash-tts"})
	reg.Register(&mockEngine{name: "pro-tts"})

	tests := []struct {
		name    string
		model   string
		want    string
		wantErr error
	}{
		{"empty uses default", "", "flash-tts", nil},
		{"named model", "pro-tts", "pro-tts", nil},
		{"unknown model", "other", "", ErrEngineNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, err := reg.Resolve(tt.model)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Resolve(%q) error = %v, want %v", tt.model, err, tt.wantErr)
			}
			if err == nil && engine.Name() != tt.want {
				t.Errorf("Resolve(%q) = %s, want %s", tt.model, engine.Name(), tt.want)
			}
		})
	}
}

func TestRegistry_List(t *testing.T) {
	reg := NewRegistry()

	if names := reg.List(); names == nil || len(names) != 0 {
		t.Errorf("expected empty non-nil list, got %#v", names)
	}

	reg.Register(&mockEngine{name: "gamma"})
	reg.Register(&mockEngine{name: "alpha"})
	reg.Register(&mockEngine{name: "beta"})

	if names := reg.List(); !slices.Equal(names, []string{"alpha", "beta", "gamma"}) {
		t.Errorf("List() = %v, want sorted [alpha beta gamma]", names)
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&mockEngine{name: "flash-tts"})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			reg.Register(&mockEngine{name: fmt.Sprintf("model-%d", i)})
		}(i)
		go func() {
			defer wg.Done()
			if _, err := reg.Resolve(""); err != nil {
				t.Errorf("Resolve(\"\") error = %v", err)
			}
			reg.List()
		}()
	}
	wg.Wait()

	if got := len(reg.List()); got != 9 {
		t.Errorf("len(List()) = %d, want 9", got)
	}
}
