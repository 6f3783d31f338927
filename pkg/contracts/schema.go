package contracts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// requestSchema is the JSON Schema every inbound VerificationRequest payload
// must satisfy before the engine touches it.
const requestSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["policy_id", "constitutional_hash"],
  "properties": {
    "request_id": {"type": "string"},
    "policy_id": {"type": "string", "minLength": 1},
    "constitutional_hash": {"type": "string", "minLength": 1},
    "assertions": {"type": "array", "items": {"type": "string"}},
    "constraints": {"type": "array", "items": {"type": "string"}},
    "verification_type": {"type": "string"},
    "timeout_seconds": {"type": "integer", "minimum": 0}
  },
  "additionalProperties": false
}`

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		c.Draft = jsonschema.Draft2020
		const url = "https://charter.schemas.local/verification_request.schema.json"
		if err := c.AddResource(url, strings.NewReader(requestSchema)); err != nil {
			schemaErr = fmt.Errorf("request schema load failed: %w", err)
			return
		}
		schema, schemaErr = c.Compile(url)
	})
	return schema, schemaErr
}

// DecodeRequest validates raw JSON against the request schema and decodes it.
func DecodeRequest(data []byte) (*VerificationRequest, error) {
	s, err := compiledSchema()
	if err != nil {
		return nil, err
	}

	var generic any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&generic); err != nil {
		return nil, fmt.Errorf("request decode failed: %w", err)
	}
	if err := s.Validate(generic); err != nil {
		return nil, fmt.Errorf("request schema validation failed: %w", err)
	}

	var req VerificationRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("request decode failed: %w", err)
	}
	return &req, nil
}
