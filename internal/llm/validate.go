package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

var (
	paperSchemaOnce sync.Once
	paperSchema     *jsonschema.Schema
	paperSchemaErr  error
)

// compiledPaperSchema compiles BuildPaperJSONSchema once; the schema is
// static, so every extraction response validates against the same compile.
func compiledPaperSchema() (*jsonschema.Schema, error) {
	paperSchemaOnce.Do(func() {
		b, err := json.Marshal(BuildPaperJSONSchema())
		if err != nil {
			paperSchemaErr = fmt.Errorf("marshal paper schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("paper.schema.json", bytes.NewReader(b)); err != nil {
			paperSchemaErr = fmt.Errorf("add paper schema: %w", err)
			return
		}
		paperSchema, paperSchemaErr = compiler.Compile("paper.schema.json")
	})
	return paperSchema, paperSchemaErr
}

// ValidatePaper checks one extraction response against the paper field
// schema.
func ValidatePaper(data []byte) error {
	schema, err := compiledPaperSchema()
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal paper fields: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("paper fields do not match schema: %w", err)
	}
	return nil
}
