package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// ErrInvalidFrame reports an inbound payload that does not match the envelope.
var ErrInvalidFrame = errors.New("invalid frame")

const envelopeSchemaURL = "frontdesk://frame.json"

const envelopeSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"required": ["type"],
	"properties": {
		"type": {"type": "string", "minLength": 1},
		"data": {"type": ["object", "null"]},
		"timestamp": {"type": "string"}
	}
}`

// Decoder validates and decodes inbound frames.
type Decoder struct {
	schema *jsonschema.Schema
}

// NewDecoder compiles the envelope schema.
func NewDecoder() (*Decoder, error) {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(envelopeSchema))
	if err != nil {
		return nil, fmt.Errorf("parse envelope schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(envelopeSchemaURL, doc); err != nil {
		return nil, fmt.Errorf("add envelope schema: %w", err)
	}
	schema, err := c.Compile(envelopeSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile envelope schema: %w", err)
	}
	return &Decoder{schema: schema}, nil
}

// Decode validates raw against the envelope and returns the frame. A missing
// or null data member decodes as an empty object.
func (d *Decoder) Decode(raw []byte) (Frame, error) {
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return Frame{}, fmt.Errorf("%w: %v", ErrInvalidFrame, err)
	}
	if err := d.schema.Validate(inst); err != nil {
		return Frame{}, fmt.Errorf("%w: %v", ErrInvalidFrame, err)
	}
	var f Frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return Frame{}, fmt.Errorf("%w: %v", ErrInvalidFrame, err)
	}
	if len(f.Data) == 0 || bytes.Equal(bytes.TrimSpace(f.Data), []byte("null")) {
		f.Data = json.RawMessage("{}")
	}
	return f, nil
}

// Encode serializes an outbound message.
func Encode(msg Outbound) ([]byte, error) {
	if strings.TrimSpace(msg.Type) == "" {
		return nil, fmt.Errorf("outbound message type is empty")
	}
	if msg.Data == nil {
		msg.Data = struct{}{}
	}
	return json.Marshal(msg)
}
