package prompt

import (
	"fmt"

	"github.com/aymerick/raymond"
)

// Persona is a compiled Handlebars persona template. Templates without
// placeholders render to their literal text.
type Persona struct {
	tmpl *raymond.Template
}

func CompilePersona(source string) (*Persona, error) {
	tmpl, err := raymond.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("parse persona template: %w", err)
	}
	return &Persona{tmpl: tmpl}, nil
}

// Render executes the template. Safe for concurrent use; compiled templates
// are read-only after parsing.
func (p *Persona) Render(data map[string]any) (string, error) {
	if data == nil {
		data = map[string]any{}
	}
	out, err := p.tmpl.Exec(data)
	if err != nil {
		return "", fmt.Errorf("render persona template: %w", err)
	}
	return out, nil
}
