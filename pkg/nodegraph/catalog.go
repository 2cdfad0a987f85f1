package nodegraph

import (
	"fmt"
	"slices"
	"sync"
)

// Catalog maps template names to templates. Build one at startup and pass
// it to whatever creates nodes by name.
//
// Catalog is safe for concurrent use.
type Catalog struct {
	mu        sync.RWMutex
	templates map[string]*Template
}

// NewCatalog creates a catalog holding the given templates.
// Panics under the same conditions as Register.
func NewCatalog(templates ...*Template) *Catalog {
	c := &Catalog{
		templates: make(map[string]*Template, len(templates)),
	}
	for _, t := range templates {
		c.Register(t)
	}
	return c
}

// DefaultCatalog returns a catalog with the built-in templates.
func DefaultCatalog() *Catalog {
	return NewCatalog(
		NewNumberTemplate(),
		RepeatStringTemplate(),
		NewTextTemplate(),
	)
}

// Register adds a template.
//
// Panics if:
//   - t is nil
//   - t.Name is empty
//   - t.Transform is nil
//   - t.Output or a slot default has an undeclared kind
//   - a template with the same name is already registered
func (c *Catalog) Register(t *Template) {
	if t == nil {
		panic("nodegraph: template cannot be nil")
	}
	if t.Name == "" {
		panic("nodegraph: template name cannot be empty")
	}
	if t.Transform == nil {
		panic(fmt.Sprintf("nodegraph: template %s has no transform", t.Name))
	}
	if !t.Output.Valid() {
		panic(fmt.Sprintf("nodegraph: template %s has invalid output kind", t.Name))
	}
	for _, spec := range t.Inputs {
		if !spec.Default.Kind().Valid() {
			panic(fmt.Sprintf("nodegraph: template %s slot %s has invalid kind", t.Name, spec.Label))
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.templates[t.Name]; exists {
		panic(fmt.Sprintf("nodegraph: duplicate template: %s", t.Name))
	}
	c.templates[t.Name] = t
}

// Lookup returns the template registered under name.
func (c *Catalog) Lookup(name string) (*Template, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.templates[name]
	return t, ok
}

// Names returns the registered template names, sorted.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.templates))
	for name := range c.templates {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Len returns the number of registered templates.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.templates)
}
