// Package prompts holds the prompt templates sent to the language model.
// Each embedded JSON file maps an operation name to a template with
// {{.Name}} placeholders.
package prompts

import (
	"embed"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
)

//go:embed *.json
var promptFiles embed.FS

// Dialogue is the prompt file used by the semantic oracle.
const Dialogue = "dialogue.json"

var placeholder = regexp.MustCompile(`\{\{\.(\w+)\}\}`)

// Set is a parsed prompt file.
type Set struct {
	name      string
	templates map[string]string
}

var (
	setsMu sync.Mutex
	sets   = make(map[string]*Set)
)

// Load returns the parsed prompt file, reading it on first use.
func Load(filename string) (*Set, error) {
	setsMu.Lock()
	defer setsMu.Unlock()
	if s, ok := sets[filename]; ok {
		return s, nil
	}

	data, err := promptFiles.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt file %s: %w", filename, err)
	}
	var templates map[string]string
	if err := json.Unmarshal(data, &templates); err != nil {
		return nil, fmt.Errorf("failed to parse prompt file %s: %w", filename, err)
	}

	s := &Set{name: filename, templates: templates}
	sets[filename] = s
	return s, nil
}

// Keys returns the prompt keys in sorted order.
func (s *Set) Keys() []string {
	keys := make([]string, 0, len(s.templates))
	for k := range s.templates {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Require returns an error naming every key the file lacks.
func (s *Set) Require(keys ...string) error {
	var missing []string
	for _, k := range keys {
		if _, ok := s.templates[k]; !ok {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("prompt file %s is missing %s", s.name, strings.Join(missing, ", "))
	}
	return nil
}

// Placeholders returns the distinct placeholder names of a template, sorted.
func (s *Set) Placeholders(key string) ([]string, error) {
	tmpl, err := s.template(key)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var names []string
	for _, m := range placeholder.FindAllStringSubmatch(tmpl, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	sort.Strings(names)
	return names, nil
}

// Render fills the placeholders of key in a single pass. Values are inserted
// as they are and never scanned for placeholders. A placeholder without a
// value in data is an error.
func (s *Set) Render(key string, data map[string]string) (string, error) {
	tmpl, err := s.template(key)
	if err != nil {
		return "", err
	}

	var unfilled []string
	out := placeholder.ReplaceAllStringFunc(tmpl, func(m string) string {
		name := m[3 : len(m)-2]
		v, ok := data[name]
		if !ok {
			unfilled = append(unfilled, name)
			return m
		}
		return v
	})
	if len(unfilled) > 0 {
		return "", fmt.Errorf("prompt %q has no value for %s", key, strings.Join(unfilled, ", "))
	}
	return out, nil
}

func (s *Set) template(key string) (string, error) {
	tmpl, ok := s.templates[key]
	if !ok {
		return "", fmt.Errorf("prompt key %q not found in %s", key, s.name)
	}
	return tmpl, nil
}

// Render loads filename and renders key with data.
func Render(filename, key string, data map[string]string) (string, error) {
	s, err := Load(filename)
	if err != nil {
		return "", err
	}
	return s.Render(key, data)
}
