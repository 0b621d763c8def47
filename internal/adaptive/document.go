package adaptive

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/cli-senpei/Lerni-sub000/internal/nn"
)

// DocumentVersion is the persisted document schema version. Documents with
// any other version are discarded in favour of a fresh state.
const DocumentVersion = 1

var (
	// ErrVersionMismatch means the document was written by another schema version.
	ErrVersionMismatch = errors.New("state document version mismatch")

	// ErrVariantMismatch means the document belongs to another estimator variant.
	ErrVariantMismatch = errors.New("state document variant mismatch")
)

// DocumentError reports a document that is not valid JSON or does not
// match the state schema.
type DocumentError struct {
	Err error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("invalid state document: %v", e.Err)
}

func (e *DocumentError) Unwrap() error { return e.Err }

// Document is the persisted estimator state. Error Memory is an ordered
// list so first-seen order survives a round trip.
type Document struct {
	Version             int             `json:"version"`
	Variant             string          `json:"variant"`
	RecentCorrect       []int           `json:"recentCorrect,omitempty"`
	CategoryErrors      []CategoryScore `json:"categoryErrors"`
	AverageReactionTime float64         `json:"averageReactionTime"`
	CurrentDifficulty   float64         `json:"currentDifficulty"`
	Trend               int             `json:"trend,omitempty"`
	Model               *ModelDocument  `json:"model,omitempty"`
}

// ModelDocument stores a trained regressor as its architecture plus the
// flattened weight arrays.
type ModelDocument struct {
	Architecture nn.Architecture `json:"architecture"`
	Weights      [][]float64     `json:"weights"`
}

const documentSchema = `{
  "type": "object",
  "required": ["version", "variant", "categoryErrors", "averageReactionTime", "currentDifficulty"],
  "properties": {
    "version": {"type": "integer"},
    "variant": {"enum": ["rules", "online"]},
    "recentCorrect": {
      "type": "array",
      "maxItems": 10,
      "items": {"enum": [0, 1]}
    },
    "categoryErrors": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["category", "score"],
        "properties": {
          "category": {"type": "string", "minLength": 1},
          "score": {"type": "number"}
        }
      }
    },
    "averageReactionTime": {"type": "number", "minimum": 0},
    "currentDifficulty": {"type": "number", "minimum": 1, "maximum": 5},
    "trend": {"enum": [-1, 0, 1]},
    "model": {
      "type": "object",
      "required": ["architecture", "weights"],
      "properties": {
        "architecture": {
          "type": "object",
          "required": ["inputs", "hidden", "activation", "learningRate"]
        },
        "weights": {
          "type": "array",
          "items": {"type": "array", "items": {"type": "number"}}
        }
      }
    }
  }
}`

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func stateSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		var def any
		if err := json.Unmarshal([]byte(documentSchema), &def); err != nil {
			schemaErr = fmt.Errorf("parse schema definition: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		const url = "schema://estimator-state.json"
		if err := c.AddResource(url, def); err != nil {
			schemaErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiledSchema, schemaErr = c.Compile(url)
	})
	return compiledSchema, schemaErr
}

// DecodeDocument parses and validates a persisted document for variant.
func DecodeDocument(raw []byte, variant string) (*Document, error) {
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, &DocumentError{Err: fmt.Errorf("invalid JSON: %w", err)}
	}

	var head struct {
		Version int    `json:"version"`
		Variant string `json:"variant"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, &DocumentError{Err: err}
	}
	if head.Version != DocumentVersion {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrVersionMismatch, head.Version, DocumentVersion)
	}
	if head.Variant != variant {
		return nil, fmt.Errorf("%w: got %q, want %q", ErrVariantMismatch, head.Variant, variant)
	}

	sch, err := stateSchema()
	if err != nil {
		return nil, fmt.Errorf("compile state schema: %w", err)
	}
	if err := sch.Validate(parsed); err != nil {
		return nil, &DocumentError{Err: err}
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, &DocumentError{Err: err}
	}
	return &doc, nil
}
