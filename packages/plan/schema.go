package plan

import (
	"embed"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// ValidationError lists every schema violation found in a document
type ValidationError struct {
	Kind   Kind
	Issues []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s plan: %s", e.Kind, strings.Join(e.Issues, "; "))
}

// Schema returns the JSON schema for kind
func Schema(kind Kind) ([]byte, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown plan kind %q", kind)
	}
	return schemaFS.ReadFile("schemas/" + string(kind) + ".json")
}

// validate checks a JSON document against the schema for kind
func validate(kind Kind, document []byte) error {
	schemaData, err := Schema(kind)
	if err != nil {
		return err
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaData),
		gojsonschema.NewBytesLoader(document),
	)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if result.Valid() {
		return nil
	}

	issues := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		issues = append(issues, desc.String())
	}
	return &ValidationError{Kind: kind, Issues: issues}
}
