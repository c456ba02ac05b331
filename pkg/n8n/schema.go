package n8n

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ErrInvalidTemplate indicates a fetched template document does not have the
// minimal shape the customizer depends on.
var ErrInvalidTemplate = errors.New("invalid template document")

// templateSchema is the minimal contract a template document must satisfy
// before customization: a name plus a non-empty node list where every node
// carries the type tag and name the keyword matching runs on. The rest of the
// graph is externally owned and deliberately unconstrained.
const templateSchema = `{
  "type": "object",
  "required": ["name", "nodes"],
  "properties": {
    "name": {"type": "string", "minLength": 1},
    "nodes": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["type", "name"],
        "properties": {
          "type": {"type": "string", "minLength": 1},
          "name": {"type": "string"}
        }
      }
    },
    "connections": {"type": "object"}
  }
}`

// ValidateTemplate checks the fetched template against the minimal schema and
// reports every violation at once.
func ValidateTemplate(doc *Document) error {
	schemaLoader := gojsonschema.NewStringLoader(templateSchema)
	documentLoader := gojsonschema.NewGoLoader(doc)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("template schema validation failed: %w", err)
	}

	if result.Valid() {
		return nil
	}

	details := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		details = append(details, desc.String())
	}

	return fmt.Errorf("%w: %s", ErrInvalidTemplate, strings.Join(details, "; "))
}
