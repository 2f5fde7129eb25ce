// Package invalidation decodes listing change events.
package invalidation

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/mohammed-shakir/listing-map/internal/core/model"
)

const (
	OpUpsert = "upsert"
	OpDelete = "delete"
)

var ErrInvalidEvent = errors.New("invalid change event")

//go:embed schema/listing_change.v1.json
var schemaV1 []byte

const schemaURL = "listing_change.v1.json"

var eventSchema = mustCompile()

func mustCompile() *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	c.AssertFormat = true
	if err := c.AddResource(schemaURL, bytes.NewReader(schemaV1)); err != nil {
		panic(fmt.Sprintf("invalidation: add schema: %v", err))
	}
	s, err := c.Compile(schemaURL)
	if err != nil {
		panic(fmt.Sprintf("invalidation: compile schema: %v", err))
	}
	return s
}

type Event struct {
	Version int            `json:"version"`
	Op      string         `json:"op"`
	ID      string         `json:"id"`
	Seq     uint64         `json:"seq,omitempty"`
	TS      time.Time      `json:"ts"`
	Source  string         `json:"source,omitempty"`
	Listing *model.Listing `json:"listing,omitempty"`
}

// Decode checks b against the event schema, then unmarshals it and applies
// the cross-field rules the schema cannot express.
func Decode(b []byte) (Event, error) {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return Event{}, fmt.Errorf("%w: json: %w", ErrInvalidEvent, err)
	}
	if err := eventSchema.Validate(raw); err != nil {
		return Event{}, fmt.Errorf("%w: %w", ErrInvalidEvent, err)
	}
	var ev Event
	if err := json.Unmarshal(b, &ev); err != nil {
		return Event{}, fmt.Errorf("%w: json: %w", ErrInvalidEvent, err)
	}
	if err := ev.Validate(); err != nil {
		return Event{}, err
	}
	return ev, nil
}

func (e Event) Validate() error {
	if e.Version != 1 {
		return fmt.Errorf("%w: version must be 1", ErrInvalidEvent)
	}
	switch e.Op {
	case OpDelete:
		return nil
	case OpUpsert:
	default:
		return fmt.Errorf("%w: op must be upsert|delete", ErrInvalidEvent)
	}
	if e.Listing == nil {
		return fmt.Errorf("%w: upsert requires a listing", ErrInvalidEvent)
	}
	if e.Listing.ID != e.ID {
		return fmt.Errorf("%w: listing.id %q does not match id %q", ErrInvalidEvent, e.Listing.ID, e.ID)
	}
	if err := e.Listing.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEvent, err)
	}
	return nil
}

func Encode(e Event) ([]byte, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	b, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal change event: %w", err)
	}
	return b, nil
}
