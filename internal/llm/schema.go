package llm

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ResultSchemaName is the name sent to backends that label schemas
const ResultSchemaName = "FCYFSchema"

//go:embed result_schema.json
var resultSchemaJSON []byte

// requiredFields must be present with the right type, or the output is malformed.
// "speak" is required by the schema too but can be derived from the answer.
var requiredFields = map[string]bool{
	"answer":     true,
	"confidence": true,
	"sources":    true,
}

var compiledSchema = mustCompileSchema()

func mustCompileSchema() *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(resultSchemaJSON))
	if err != nil {
		panic(fmt.Sprintf("compile result schema: %v", err))
	}
	return schema
}

// ResultSchema returns the JSON Schema of FactCheckResult.
// The same document constrains backends and validates their output.
func ResultSchema() json.RawMessage {
	out := make(json.RawMessage, len(resultSchemaJSON))
	copy(out, resultSchemaJSON)
	return out
}

// schemaReport splits validation errors into fatal gaps and repairable violations
type schemaReport struct {
	Missing    []string
	Violations []string
}

func checkSchema(doc map[string]interface{}) (schemaReport, error) {
	result, err := compiledSchema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return schemaReport{}, fmt.Errorf("validation error: %w", err)
	}

	var report schemaReport
	for _, desc := range result.Errors() {
		field := strings.TrimPrefix(strings.TrimPrefix(desc.Context().String(), "(root)"), ".")
		if desc.Type() == "required" {
			if prop, ok := desc.Details()["property"].(string); ok {
				if field == "" {
					field = prop
				} else {
					field += "." + prop
				}
			}
		}

		if requiredFields[field] && (desc.Type() == "required" || desc.Type() == "invalid_type") {
			report.Missing = append(report.Missing, field)
			continue
		}
		report.Violations = append(report.Violations, desc.String())
	}

	return report, nil
}
