package schema

import "fmt"

// SchemaError is returned for field names that are not in the registry.
type SchemaError struct {
	Name    string
	Message string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema error: %s: %q", e.Message, e.Name)
}
