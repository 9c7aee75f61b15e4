package chart

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// payloadSchema 固化 Payload 的线上契约，防止字段悄悄漂移。
const payloadSchema = `{
  "type": "object",
  "required": ["id", "filters", "data"],
  "additionalProperties": false,
  "properties": {
    "id": {"type": "string", "minLength": 1},
    "filters": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["dimension", "operator", "value"],
        "additionalProperties": false,
        "properties": {
          "dimension": {"type": "string", "minLength": 1},
          "operator": {"enum": ["gte", "="]},
          "value": {"type": "string"}
        }
      }
    },
    "data": {
      "type": "object",
      "minProperties": 1,
      "additionalProperties": {"type": "number"}
    }
  }
}`

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaCompErr  error
)

func compilePayloadSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("payload.json", strings.NewReader(payloadSchema)); err != nil {
			schemaCompErr = err
			return
		}
		compiledSchema, schemaCompErr = compiler.Compile("payload.json")
	})
	return compiledSchema, schemaCompErr
}

// ValidatePayload 校验一段载荷 JSON 是否符合线上契约。
func ValidatePayload(raw []byte) error {
	schema, err := compilePayloadSchema()
	if err != nil {
		return fmt.Errorf("compile payload schema: %w", err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("payload is not valid JSON: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("payload schema violation: %w", err)
	}
	return nil
}
