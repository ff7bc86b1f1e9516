// Package profile defines language profiles used by the sandbox.
package profile

import (
	"fmt"
	"strings"
)

// LanguageSpec defines how to run a language.
type LanguageSpec struct {
	ID         string
	Name       string
	Version    string
	SourceFile string
	RunCmdTpl  string
	Env        []string
}

// Registry resolves language identifiers into specs.
type Registry struct {
	specs map[string]LanguageSpec
}

// NewRegistry builds a registry from the given specs.
func NewRegistry(specs ...LanguageSpec) *Registry {
	m := make(map[string]LanguageSpec, len(specs))
	for _, s := range specs {
		m[s.ID] = s
	}
	return &Registry{specs: m}
}

// DefaultRegistry returns the registry with the built-in interpreters.
func DefaultRegistry() *Registry {
	return NewRegistry(
		LanguageSpec{
			ID:         "python",
			Name:       "Python",
			Version:    "3",
			SourceFile: "main.py",
			RunCmdTpl:  "python3 {src}",
			Env:        []string{"PYTHONUNBUFFERED=1", "PYTHONDONTWRITEBYTECODE=1"},
		},
		LanguageSpec{
			ID:         "javascript",
			Name:       "JavaScript",
			Version:    "node",
			SourceFile: "main.js",
			RunCmdTpl:  "node {src}",
			Env:        []string{"NODE_OPTIONS=--max-old-space-size=128"},
		},
	)
}

// Resolve returns the spec for a language id.
func (r *Registry) Resolve(id string) (LanguageSpec, error) {
	s, ok := r.specs[strings.ToLower(strings.TrimSpace(id))]
	if !ok {
		return LanguageSpec{}, fmt.Errorf("unsupported language: %s", id)
	}
	return s, nil
}

// IDs lists registered language ids.
func (r *Registry) IDs() []string {
	out := make([]string, 0, len(r.specs))
	for id := range r.specs {
		out = append(out, id)
	}
	return out
}
