package tts

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
)

var (
	// ErrEngineNotFound is returned when no engine serves the requested model.
	ErrEngineNotFound = errors.New("TTS engine not found")
	// ErrEngineExists is returned when a model already has an engine.
	ErrEngineExists = errors.New("TTS engine already registered")
)

// Registry holds one engine per speech model. The first model registered is
// the default until SetDefault picks another. Safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	byModel  map[string]Engine
	defModel string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byModel: make(map[string]Engine)}
}

// Register adds engine under the model it reports from Name.
func (r *Registry) Register(engine Engine) error {
	model := engine.Name()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byModel[model]; taken {
		return fmt.Errorf("%w: %s", ErrEngineExists, model)
	}
	r.byModel[model] = engine
	if r.defModel == "" {
		r.defModel = model
	}
	return nil
}

// Get returns the engine serving model.
func (r *Registry) Get(model string) (Engine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lookup(model)
}

// Resolve is Get, except that an empty model selects the default.
func (r *Registry) Resolve(model string) (Engine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if model == "" {
		model = r.defModel
	}
	return r.lookup(model)
}

// Default returns the engine used when a request names no model.
func (r *Registry) Default() (Engine, error) {
	return r.Resolve("")
}

// SetDefault makes model the default. The model must already be registered.
func (r *Registry) SetDefault(model string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.lookup(model); err != nil {
		return err
	}
	r.defModel = model
	return nil
}

// List returns the registered models, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	models := slices.AppendSeq(make([]string, 0, len(r.byModel)), maps.Keys(r.byModel))
	slices.Sort(models)
	return models
}

// lookup requires r.mu to be held.
func (r *Registry) lookup(model string) (Engine, error) {
	engine, ok := r.byModel[model]
	if !ok || model == "" {
		return nil, fmt.Errorf("%w: %q", ErrEngineNotFound, model)
	}
	return engine, nil
}
