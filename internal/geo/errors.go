package geo

import (
	"fmt"
	"strings"
)

// NotFoundError is returned when a place name cannot be resolved.
type NotFoundError struct {
	Kind   string
	Name   string
	Within []string
}

func (e *NotFoundError) Error() string {
	if len(e.Within) > 0 {
		return fmt.Sprintf("unknown %s %q in %s", e.Kind, e.Name, strings.Join(e.Within, ", "))
	}
	return fmt.Sprintf("unknown %s %q", e.Kind, e.Name)
}
