package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/xeipuuv/gojsonschema"
)

// Version is the current document format version.
// Increment when making breaking changes to the document structure.
const Version = 1

// Document is the persisted form of a graph: every node with its slots,
// literals and edges, plus the id counter.
type Document struct {
	Version   int          `json:"version"`
	SessionID string       `json:"session_id,omitempty"`
	SavedAt   time.Time    `json:"saved_at"`
	LastID    uint64       `json:"last_id"`
	Nodes     []NodeRecord `json:"nodes"`
}

// NodeRecord is one persisted node.
type NodeRecord struct {
	ID        uint64        `json:"id"`
	Title     string        `json:"title"`
	Template  string        `json:"template"`
	X         int           `json:"x"`
	Y         int           `json:"y"`
	W         int           `json:"w"`
	Inputs    []InputRecord `json:"inputs"`
	Consumers []uint64      `json:"consumers"`
}

// InputRecord is one persisted input slot. Producer 0 means unconnected.
type InputRecord struct {
	Label    string      `json:"label"`
	Producer uint64      `json:"producer"`
	Value    ValueRecord `json:"value"`
}

// ValueRecord is a persisted literal. Kind is "integer" or "text"; only the
// matching payload field is meaningful.
type ValueRecord struct {
	Kind    string `json:"kind"`
	Integer int64  `json:"integer,omitempty"`
	Text    string `json:"text,omitempty"`
}

// Sentinel errors for decoding.
var (
	// ErrInvalidDocument indicates the bytes are not a well-formed document.
	ErrInvalidDocument = errors.New("invalid snapshot document")

	// ErrVersionMismatch indicates the document was written by an
	// incompatible format version.
	ErrVersionMismatch = errors.New("snapshot version mismatch")
)

// SchemaError lists the schema violations found in a document.
type SchemaError struct {
	Violations []string
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	return fmt.Sprintf("%v: %s", ErrInvalidDocument, strings.Join(e.Violations, "; "))
}

// Unwrap returns ErrInvalidDocument for errors.Is support.
func (e *SchemaError) Unwrap() error {
	return ErrInvalidDocument
}

// New creates a document stamped with the current version and time.
func New(sessionID string, lastID uint64, nodes []NodeRecord) *Document {
	if nodes == nil {
		nodes = []NodeRecord{}
	}
	return &Document{
		Version:   Version,
		SessionID: sessionID,
		SavedAt:   time.Now().UTC(),
		LastID:    lastID,
		Nodes:     nodes,
	}
}

// Marshal serializes a document to JSON.
func (d *Document) Marshal() ([]byte, error) {
	return json.Marshal(d)
}

// Unmarshal validates data against the document schema and decodes it.
// Schema violations return a *SchemaError; a decodable document with the
// wrong version returns ErrVersionMismatch.
func Unmarshal(data []byte) (*Document, error) {
	schema, err := compiledSchema()
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if !result.Valid() {
		violations := make([]string, 0, len(result.Errors()))
		for _, re := range result.Errors() {
			violations = append(violations, re.String())
		}
		return nil, &SchemaError{Violations: violations}
	}

	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if d.Version != Version {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrVersionMismatch, d.Version, Version)
	}
	return &d, nil
}

var compiledSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(documentSchema))
})

// documentSchema describes the structure of a Document. Cross-node
// consistency (edges, ids, templates) is checked by the graph on restore.
const documentSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["version", "last_id", "nodes"],
  "properties": {
    "version": {"type": "integer", "minimum": 1},
    "session_id": {"type": "string"},
    "saved_at": {"type": "string"},
    "last_id": {"type": "integer", "minimum": 0},
    "nodes": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "template", "inputs"],
        "properties": {
          "id": {"type": "integer", "minimum": 1},
          "title": {"type": "string"},
          "template": {"type": "string", "minLength": 1},
          "x": {"type": "integer"},
          "y": {"type": "integer"},
          "w": {"type": "integer", "minimum": 0},
          "inputs": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["producer", "value"],
              "properties": {
                "label": {"type": "string"},
                "producer": {"type": "integer", "minimum": 0},
                "value": {
                  "type": "object",
                  "required": ["kind"],
                  "properties": {
                    "kind": {"enum": ["integer", "text"]},
                    "integer": {"type": "integer"},
                    "text": {"type": "string"}
                  }
                }
              }
            }
          },
          "consumers": {
            "type": ["array", "null"],
            "items": {"type": "integer", "minimum": 1},
            "uniqueItems": true
          }
        }
      }
    }
  }
}`
