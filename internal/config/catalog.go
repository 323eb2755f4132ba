package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidCatalog is returned when a catalog definition is unusable.
var ErrInvalidCatalog = errors.New("invalid catalog")

// Voice is a prebuilt voice the speech API accepts.
type Voice struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
}

// Expression is a speaking style and the instruction sent with the text.
type Expression struct {
	Name        string `yaml:"name" json:"name"`
	Instruction string `yaml:"instruction" json:"instruction"`
}

// CatalogFile is the YAML layout of a catalog file.
type CatalogFile struct {
	Accent            string       `yaml:"accent"`
	DefaultVoice      string       `yaml:"default_voice"`
	DefaultExpression string       `yaml:"default_expression"`
	Voices            []Voice      `yaml:"voices"`
	Expressions       []Expression `yaml:"expressions"`
}

// Catalog is the fixed set of voices and expressions requests may choose
// from. It is built once at startup and never modified.
type Catalog struct {
	accent            string
	defaultVoice      string
	defaultExpression string
	voices            []Voice
	expressions       []Expression
	voiceIndex        map[string]int
	expressionIndex   map[string]int
}

// DefaultAccent is the accent instruction used when none is configured.
const DefaultAccent = "Speak in a clear, natural voice with a neutral accent."

var defaultVoices = []Voice{
	{"Kore", "Firm"},
	{"Puck", "Upbeat"},
	{"Charon", "Informative"},
	{"Zephyr", "Bright"},
	{"Fenrir", "Excitable"},
	{"Leda", "Youthful"},
	{"Orus", "Firm"},
	{"Aoede", "Breezy"},
	{"Callirrhoe", "Easy-going"},
	{"Autonoe", "Bright"},
	{"Enceladus", "Breathy"},
	{"Iapetus", "Clear"},
	{"Umbriel", "Easy-going"},
	{"Algieba", "Smooth"},
	{"Despina", "Smooth"},
	{"Erinome", "Clear"},
	{"Algenib", "Gravelly"},
	{"Rasalgethi", "Informative"},
	{"Laomedeia", "Upbeat"},
	{"Achernar", "Soft"},
	{"Alnilam", "Firm"},
	{"Schedar", "Even"},
	{"Gacrux", "Mature"},
	{"Pulcherrima", "Forward"},
	{"Achird", "Friendly"},
	{"Zubenelgenubi", "Casual"},
	{"Vindemiatrix", "Gentle"},
	{"Sadachbia", "Lively"},
	{"Sadaltager", "Knowledgeable"},
	{"Sulafat", "Warm"},
}

var defaultExpressions = []Expression{
	{"neutral", ""},
	{"cheerful", "Say the following in a cheerful, upbeat tone."},
	{"sad", "Say the following in a sad, subdued tone."},
	{"excited", "Say the following with energy and excitement."},
	{"calm", "Say the following slowly and calmly."},
	{"whisper", "Whisper the following softly."},
	{"angry", "Say the following in an angry, forceful tone."},
	{"serious", "Say the following in a serious, professional tone."},
	{"storyteller", "Read the following like a storyteller narrating to an audience."},
}

// DefaultCatalog returns the built-in catalog.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(CatalogFile{
		Accent:            DefaultAccent,
		DefaultVoice:      "Kore",
		DefaultExpression: "neutral",
		Voices:            defaultVoices,
		Expressions:       defaultExpressions,
	})
	if err != nil {
		panic(err)
	}
	return c
}

// LoadCatalog reads a YAML catalog from path. An empty path returns the
// built-in catalog.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}

	var file CatalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}

	return NewCatalog(file)
}

// NewCatalog validates file and builds a Catalog from it. Names are matched
// case-insensitively and must be unique. Empty defaults fall back to the
// first voice and expression; an empty accent uses DefaultAccent.
func NewCatalog(file CatalogFile) (*Catalog, error) {
	if len(file.Voices) == 0 {
		return nil, fmt.Errorf("%w: at least one voice is required", ErrInvalidCatalog)
	}
	if len(file.Expressions) == 0 {
		return nil, fmt.Errorf("%w: at least one expression is required", ErrInvalidCatalog)
	}

	c := &Catalog{
		accent:          strings.TrimSpace(file.Accent),
		voices:          make([]Voice, 0, len(file.Voices)),
		expressions:     make([]Expression, 0, len(file.Expressions)),
		voiceIndex:      make(map[string]int, len(file.Voices)),
		expressionIndex: make(map[string]int, len(file.Expressions)),
	}
	if c.accent == "" {
		c.accent = DefaultAccent
	}

	for _, v := range file.Voices {
		v.Name = strings.TrimSpace(v.Name)
		if v.Name == "" {
			return nil, fmt.Errorf("%w: voice name cannot be empty", ErrInvalidCatalog)
		}
		key := strings.ToLower(v.Name)
		if _, dup := c.voiceIndex[key]; dup {
			return nil, fmt.Errorf("%w: duplicate voice %q", ErrInvalidCatalog, v.Name)
		}
		c.voiceIndex[key] = len(c.voices)
		c.voices = append(c.voices, v)
	}

	for _, e := range file.Expressions {
		e.Name = strings.TrimSpace(e.Name)
		if e.Name == "" {
			return nil, fmt.Errorf("%w: expression name cannot be empty", ErrInvalidCatalog)
		}
		key := strings.ToLower(e.Name)
		if _, dup := c.expressionIndex[key]; dup {
			return nil, fmt.Errorf("%w: duplicate expression %q", ErrInvalidCatalog, e.Name)
		}
		c.expressionIndex[key] = len(c.expressions)
		c.expressions = append(c.expressions, e)
	}

	c.defaultVoice = c.voices[0].Name
	if file.DefaultVoice != "" {
		v, ok := c.LookupVoice(file.DefaultVoice)
		if !ok {
			return nil, fmt.Errorf("%w: default voice %q is not listed", ErrInvalidCatalog, file.DefaultVoice)
		}
		c.defaultVoice = v.Name
	}

	c.defaultExpression = c.expressions[0].Name
	if file.DefaultExpression != "" {
		e, ok := c.LookupExpression(file.DefaultExpression)
		if !ok {
			return nil, fmt.Errorf("%w: default expression %q is not listed", ErrInvalidCatalog, file.DefaultExpression)
		}
		c.defaultExpression = e.Name
	}

	return c, nil
}

// Accent returns the accent instruction prepended to every prompt.
func (c *Catalog) Accent() string { return c.accent }

// DefaultVoice returns the voice used when a request names none.
func (c *Catalog) DefaultVoice() string { return c.defaultVoice }

// DefaultExpression returns the expression used when a request names none.
func (c *Catalog) DefaultExpression() string { return c.defaultExpression }

// Voices returns a copy of the voice list in catalog order.
func (c *Catalog) Voices() []Voice {
	return append([]Voice(nil), c.voices...)
}

// Expressions returns a copy of the expression list in catalog order.
func (c *Catalog) Expressions() []Expression {
	return append([]Expression(nil), c.expressions...)
}

// LookupVoice finds a voice by case-insensitive name.
func (c *Catalog) LookupVoice(name string) (Voice, bool) {
	i, ok := c.voiceIndex[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Voice{}, false
	}
	return c.voices[i], true
}

// LookupExpression finds an expression by case-insensitive name.
func (c *Catalog) LookupExpression(name string) (Expression, bool) {
	i, ok := c.expressionIndex[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Expression{}, false
	}
	return c.expressions[i], true
}
