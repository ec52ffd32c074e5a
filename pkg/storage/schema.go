package storage

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/blackcoderx/capter/pkg/core"
)

// WorkflowSchema is the JSON schema every workflow document must satisfy.
const WorkflowSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["name", "steps"],
  "additionalProperties": false,
  "properties": {
    "file": {"type": "string"},
    "name": {"type": "string", "minLength": 1},
    "url": {"type": "string"},
    "method": {"$ref": "#/definitions/method"},
    "env": {"type": ["object", "null"]},
    "skip": {"type": "boolean"},
    "steps": {
      "type": "array",
      "items": {"$ref": "#/definitions/step"}
    }
  },
  "definitions": {
    "method": {
      "type": "string",
      "pattern": "^(?i)(get|head|post|put|patch|delete|options|trace|connect)$"
    },
    "step": {
      "type": "object",
      "required": ["name"],
      "additionalProperties": false,
      "properties": {
        "name": {"type": "string", "minLength": 1},
        "id": {"type": "string", "pattern": "^[^.\\s]+$"},
        "url": {"type": "string"},
        "method": {"$ref": "#/definitions/method"},
        "query": {"type": ["object", "null"]},
        "headers": {"type": ["object", "null"]},
        "body": {},
        "graphql": {
          "type": "object",
          "required": ["query"],
          "additionalProperties": false,
          "properties": {
            "query": {"type": "string"},
            "variables": {}
          }
        },
        "assertions": {
          "type": ["array", "null"],
          "items": {"type": "string"}
        },
        "options": {
          "type": ["object", "null"],
          "additionalProperties": false,
          "properties": {
            "mask": {"type": "array", "items": {"type": "string"}}
          }
        },
        "skip": {"type": "boolean"}
      }
    }
  }
}`

var schemaLoader = gojsonschema.NewStringLoader(WorkflowSchema)

// ValidateDocument checks a decoded workflow document against WorkflowSchema.
func ValidateDocument(doc any) error {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewGoLoader(doc))
	if err != nil {
		return core.NewConfigError("document", fmt.Sprintf("schema validation failed: %v", err), err)
	}
	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		problems = append(problems, desc.String())
	}
	return core.NewConfigError("document", strings.Join(problems, "; "), core.ErrConfig)
}
