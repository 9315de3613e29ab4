package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/mod/semver"

	"github.com/abhisek/notequiz/internal/quiz"
)

// SchemaVersion is the envelope format written by this build. Entries with a
// different major version are treated as misses.
const SchemaVersion = "1.1.0"

var (
	// ErrIncompatible marks an envelope written by an incompatible version.
	ErrIncompatible = errors.New("cache: incompatible schema version")

	// ErrCorrupt marks an entry that is not a valid envelope.
	ErrCorrupt = errors.New("cache: corrupt entry")
)

// Metadata describes how an envelope's concepts were produced.
type Metadata struct {
	SchemaVersion string    `json:"schema_version"`
	CreatedAt     time.Time `json:"created_at"`
	Strategy      string    `json:"strategy"`
	Category      string    `json:"category,omitempty"`
	SourceHash    string    `json:"source_hash"`
	FactChecked   bool      `json:"fact_checked"`
}

// Envelope is the cached result of the cold pipeline path.
type Envelope struct {
	Metadata Metadata       `json:"metadata"`
	Concepts []quiz.Concept `json:"concepts"`
}

// NewEnvelope stamps concepts with the current schema version and time.
func NewEnvelope(sourceHash, strategy, category string, factChecked bool, concepts []quiz.Concept) *Envelope {
	return &Envelope{
		Metadata: Metadata{
			SchemaVersion: SchemaVersion,
			CreatedAt:     time.Now().UTC(),
			Strategy:      strategy,
			Category:      category,
			SourceHash:    sourceHash,
			FactChecked:   factChecked,
		},
		Concepts: concepts,
	}
}

// Compatible reports whether the envelope's major version matches ours.
func (e *Envelope) Compatible() bool {
	return compatibleVersion(e.Metadata.SchemaVersion)
}

func compatibleVersion(v string) bool {
	cv := "v" + v
	if !semver.IsValid(cv) {
		return false
	}
	return semver.Major(cv) == semver.Major("v"+SchemaVersion)
}

// SaveEnvelope writes env under ConceptsKey(env.Metadata.SourceHash).
func SaveEnvelope(ctx context.Context, s Store, env *Envelope) error {
	return s.Save(ctx, ConceptsKey(env.Metadata.SourceHash), env)
}

// LoadEnvelope returns the envelope for a note hash. Misses, corrupt entries
// and incompatible versions are all reported as errors; callers treat any
// error as a cache miss.
func LoadEnvelope(ctx context.Context, s Store, hash string) (*Envelope, error) {
	raw, err := s.Load(ctx, ConceptsKey(hash))
	if err != nil {
		return nil, err
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	sch, err := envelopeSchema()
	if err != nil {
		return nil, err
	}
	if err := sch.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if !env.Compatible() {
		return nil, fmt.Errorf("%w: %s", ErrIncompatible, env.Metadata.SchemaVersion)
	}
	return &env, nil
}

const envelopeSchemaJSON = `{
  "type": "object",
  "required": ["metadata", "concepts"],
  "properties": {
    "metadata": {
      "type": "object",
      "required": ["schema_version", "created_at", "strategy", "source_hash"],
      "properties": {
        "schema_version": {"type": "string", "minLength": 1},
        "created_at": {"type": "string"},
        "strategy": {"type": "string"},
        "category": {"type": "string"},
        "source_hash": {"type": "string"},
        "fact_checked": {"type": "boolean"}
      }
    },
    "concepts": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["term", "definition"],
        "properties": {
          "term": {"type": "string", "minLength": 1},
          "definition": {"type": "string", "minLength": 1},
          "code_snippet": {"type": "string"}
        }
      }
    }
  }
}`

var (
	envelopeOnce     sync.Once
	envelopeCompiled *jsonschema.Schema
	envelopeErr      error
)

func envelopeSchema() (*jsonschema.Schema, error) {
	envelopeOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader([]byte(envelopeSchemaJSON)))
		if err != nil {
			envelopeErr = fmt.Errorf("parse envelope schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		const url = "schema://notequiz/cache-envelope.json"
		if err := c.AddResource(url, doc); err != nil {
			envelopeErr = fmt.Errorf("add envelope schema: %w", err)
			return
		}
		envelopeCompiled, envelopeErr = c.Compile(url)
	})
	return envelopeCompiled, envelopeErr
}

// SaveHistory mirrors the question history into the cache.
func SaveHistory(ctx context.Context, s Store, texts []string) error {
	if texts == nil {
		texts = []string{}
	}
	return s.Save(ctx, HistoryKey, texts)
}

// LoadHistory returns the mirrored history, or nil when absent or unreadable.
func LoadHistory(ctx context.Context, s Store) []string {
	var texts []string
	if err := LoadJSON(ctx, s, HistoryKey, &texts); err != nil {
		return nil
	}
	return texts
}
