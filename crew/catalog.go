package crew

import (
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
)

//go:embed definitions/*.yaml
var definitionFS embed.FS

// DefaultCrew is the crew the entry point runs when none is named.
const DefaultCrew = "employer_branding"

var (
	catalogOnce sync.Once
	catalog     map[string]*Definition
	catalogErr  error
)

func loadCatalog() {
	entries, err := definitionFS.ReadDir("definitions")
	if err != nil {
		catalogErr = fmt.Errorf("read crew catalog: %w", err)
		return
	}
	catalog = make(map[string]*Definition, len(entries))
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".yaml" {
			continue
		}
		data, err := definitionFS.ReadFile(path.Join("definitions", e.Name()))
		if err != nil {
			catalogErr = fmt.Errorf("read %s: %w", e.Name(), err)
			return
		}
		def, err := Parse(data)
		if err != nil {
			catalogErr = fmt.Errorf("%s: %w", e.Name(), err)
			return
		}
		if want := strings.TrimSuffix(e.Name(), ".yaml"); def.Name != want {
			catalogErr = fmt.Errorf("%s: crew is named %q", e.Name(), def.Name)
			return
		}
		catalog[def.Name] = def
	}
}

// Catalog returns the built-in crew definitions sorted by name.
func Catalog() ([]*Definition, error) {
	catalogOnce.Do(loadCatalog)
	if catalogErr != nil {
		return nil, catalogErr
	}
	defs := make([]*Definition, 0, len(catalog))
	for _, name := range Names() {
		defs = append(defs, clone(catalog[name]))
	}
	return defs, nil
}

// Names lists the built-in crews.
func Names() []string {
	catalogOnce.Do(loadCatalog)
	names := make([]string, 0, len(catalog))
	for n := range catalog {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Lookup returns a copy of the built-in crew called name.
func Lookup(name string) (*Definition, error) {
	catalogOnce.Do(loadCatalog)
	if catalogErr != nil {
		return nil, catalogErr
	}
	def, ok := catalog[name]
	if !ok {
		return nil, fmt.Errorf("unknown crew %q, available: %s", name, strings.Join(Names(), ", "))
	}
	return clone(def), nil
}

// clone copies the slices and maps a caller might modify.
func clone(d *Definition) *Definition {
	c := *d
	c.Inputs = make(map[string]string, len(d.Inputs))
	for k, v := range d.Inputs {
		c.Inputs[k] = v
	}
	c.Params = append(c.Params[:0:0], d.Params...)
	c.Agents = make([]AgentSpec, len(d.Agents))
	for i, a := range d.Agents {
		a.Tools = append([]string(nil), a.Tools...)
		c.Agents[i] = a
	}
	c.Tasks = make([]TaskSpec, len(d.Tasks))
	for i, t := range d.Tasks {
		t.Params = append(t.Params[:0:0], t.Params...)
		t.Context = append([]string(nil), t.Context...)
		c.Tasks[i] = t
	}
	return &c
}
