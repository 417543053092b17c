// Package entity holds the registry of document entity types (lean
// canvas, project, ...) and the field layout a new document of each type
// starts with. Templates are embedded YAML so deployments cannot drift
// from the binary.
package entity

import (
	"embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"innerflame/internal/document"
)

//go:embed config/*.yaml
var configFiles embed.FS

// Well-known entity types shipped with the registry.
const (
	TypeLeanCanvas = "lean_canvas"
	TypeProject    = "project"
)

// Registry manages entity templates.
type Registry struct {
	templates map[string]*Template
	mu        sync.RWMutex
}

// NewRegistry creates a registry and loads the embedded template files.
func NewRegistry() (*Registry, error) {
	r := &Registry{templates: make(map[string]*Template)}

	for _, entityType := range []string{TypeLeanCanvas, TypeProject} {
		if err := r.loadTemplateFile(entityType); err != nil {
			return nil, fmt.Errorf("failed to load %s template: %w", entityType, err)
		}
	}

	return r, nil
}

// loadTemplateFile loads one entity type's YAML template.
func (r *Registry) loadTemplateFile(entityType string) error {
	filename := fmt.Sprintf("config/%s.yaml", entityType)
	data, err := configFiles.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filename, err)
	}

	var tmpl Template
	if err := yaml.Unmarshal(data, &tmpl); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", filename, err)
	}
	tmpl.Type = entityType

	r.mu.Lock()
	r.templates[entityType] = &tmpl
	r.mu.Unlock()

	return nil
}

// Get returns the template for an entity type.
func (r *Registry) Get(entityType string) (*Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tmpl, ok := r.templates[entityType]
	if !ok {
		return nil, fmt.Errorf("unknown entity type: %s", entityType)
	}
	return tmpl, nil
}

// Types returns the registered entity type identifiers.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.templates))
	for t := range r.templates {
		types = append(types, t)
	}
	return types
}

// InitialContent builds the serialized content for a brand new document
// of the given type: the title field followed by every template field,
// empty, in template order.
func (r *Registry) InitialContent(entityType, title string) (string, error) {
	tmpl, err := r.Get(entityType)
	if err != nil {
		return "", err
	}
	if title == "" {
		title = tmpl.DefaultTitle
	}

	fields := document.NewFields()
	fields.Set(document.TitleField, title)
	for _, f := range tmpl.Fields {
		fields.Set(f.Name, "")
	}
	return fields.JSON()
}
