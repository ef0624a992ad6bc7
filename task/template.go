// Package task implements typed task templates and the tasks bound from them.
//
// A Template is a text/template string plus the parameters it may reference.
// References to undeclared parameters are rejected when the template is
// built; missing required inputs are rejected when it is rendered, before
// anything reaches an agent.
package task

import (
	"fmt"
	"sort"
	"strings"
	"text/template"

	"github.com/alpinecapital/crewmesh/core"
)

// Param declares a named template parameter.
type Param struct {
	Name        string `yaml:"name"`
	Required    bool   `yaml:"required"`
	Default     string `yaml:"default,omitempty"`
	Description string `yaml:"description,omitempty"`
}

// Template is an immutable, parsed prompt template.
type Template struct {
	name   string
	text   string
	tmpl   *template.Template
	params []Param
}

// NewTemplate parses text and checks it against params. Params the text never
// references are dropped so Render only asks for what is used.
func NewTemplate(name, text string, params ...Param) (*Template, error) {
	seen := map[string]bool{}
	for _, p := range params {
		if p.Name == "" {
			return nil, core.NewConfigurationError(name, "parameter without a name")
		}
		if seen[p.Name] {
			return nil, core.NewConfigurationError(name, fmt.Sprintf("parameter %q declared twice", p.Name))
		}
		seen[p.Name] = true
	}

	tmpl, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, &core.ConfigurationError{Field: name, Reason: "invalid template", Err: err}
	}

	full := placeholders(params, "")
	if err := tmpl.Execute(&strings.Builder{}, full); err != nil {
		return nil, &core.ConfigurationError{Field: name, Reason: "template references an undeclared parameter", Err: err}
	}

	used := make([]Param, 0, len(params))
	for _, p := range params {
		if err := tmpl.Execute(&strings.Builder{}, placeholders(params, p.Name)); err != nil {
			used = append(used, p)
		}
	}

	return &Template{name: name, text: text, tmpl: tmpl, params: used}, nil
}

// MustTemplate is like NewTemplate but panics on error. For package level templates.
func MustTemplate(name, text string, params ...Param) *Template {
	t, err := NewTemplate(name, text, params...)
	if err != nil {
		panic(err)
	}
	return t
}

func placeholders(params []Param, skip string) map[string]string {
	m := make(map[string]string, len(params))
	for _, p := range params {
		if p.Name != skip {
			m[p.Name] = "<" + p.Name + ">"
		}
	}
	return m
}

// Name returns the template name.
func (t *Template) Name() string { return t.name }

// Text returns the unparsed template text.
func (t *Template) Text() string { return t.text }

// Params returns the parameters the template references.
func (t *Template) Params() []Param { return append([]Param(nil), t.params...) }

// Required returns the sorted names of referenced required parameters.
func (t *Template) Required() []string {
	var names []string
	for _, p := range t.params {
		if p.Required {
			names = append(names, p.Name)
		}
	}
	sort.Strings(names)
	return names
}

// Render interpolates inputs. Every missing required parameter is reported in
// a single *core.InputError; missing optional ones take their default.
func (t *Template) Render(inputs core.Inputs) (string, error) {
	data := make(map[string]string, len(t.params))
	var missing []string
	for _, p := range t.params {
		v, ok := inputs.Lookup(p.Name)
		switch {
		case ok:
			data[p.Name] = v
		case p.Required:
			missing = append(missing, p.Name)
		default:
			data[p.Name] = p.Default
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return "", &core.InputError{
			Field:  t.name,
			Reason: "missing required parameters: " + strings.Join(missing, ", "),
			Err:    core.ErrMissingInput,
		}
	}

	var b strings.Builder
	if err := t.tmpl.Execute(&b, data); err != nil {
		return "", &core.InputError{Field: t.name, Reason: "render failed", Err: err}
	}
	return b.String(), nil
}

// MissingInputs reports the required parameters absent from inputs.
func MissingInputs(inputs core.Inputs, templates ...*Template) []string {
	set := map[string]bool{}
	for _, t := range templates {
		if t == nil {
			continue
		}
		for _, name := range t.Required() {
			if _, ok := inputs.Lookup(name); !ok {
				set[name] = true
			}
		}
	}
	out := make([]string, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
