package agent

import (
	"fmt"
	"strings"
)

func roleKey(role string) string { return strings.ToLower(strings.TrimSpace(role)) }

// Directory is the set of coworkers an agent may delegate to, in a stable order.
type Directory struct {
	members []Invoker
}

// NewDirectory builds a directory from invokers. Later duplicates of a role are ignored.
func NewDirectory(members ...Invoker) Directory {
	d := Directory{}
	seen := map[string]bool{}
	for _, m := range members {
		k := roleKey(m.Role())
		if seen[k] {
			continue
		}
		seen[k] = true
		d.members = append(d.members, m)
	}
	return d
}

// Lookup finds a coworker by role, ignoring case and surrounding space.
func (d Directory) Lookup(role string) (Invoker, bool) {
	k := roleKey(role)
	for _, m := range d.members {
		if roleKey(m.Role()) == k {
			return m, true
		}
	}
	return nil, false
}

// Roles lists the coworker roles.
func (d Directory) Roles() []string {
	roles := make([]string, len(d.members))
	for i, m := range d.members {
		roles[i] = m.Role()
	}
	return roles
}

// Len returns the number of coworkers.
func (d Directory) Len() int { return len(d.members) }

// Registry holds the agents of a crew in registration order.
type Registry struct {
	agents []*Agent
	byRole map[string]*Agent
}

// NewRegistry creates a registry and registers agents.
func NewRegistry(agents ...*Agent) (*Registry, error) {
	r := &Registry{byRole: map[string]*Agent{}}
	for _, a := range agents {
		if err := r.Register(a); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a; roles are unique ignoring case.
func (r *Registry) Register(a *Agent) error {
	k := roleKey(a.Role())
	if _, exists := r.byRole[k]; exists {
		return fmt.Errorf("agent %q already registered", a.Role())
	}
	r.byRole[k] = a
	r.agents = append(r.agents, a)
	return nil
}

// Get looks an agent up by role, ignoring case.
func (r *Registry) Get(role string) (*Agent, bool) {
	a, ok := r.byRole[roleKey(role)]
	return a, ok
}

// Agents returns the registered agents in registration order.
func (r *Registry) Agents() []*Agent {
	return append([]*Agent(nil), r.agents...)
}

// Len returns the number of agents.
func (r *Registry) Len() int { return len(r.agents) }

// Directory returns every agent except the ones whose role matches exclude.
func (r *Registry) Directory(exclude ...string) Directory {
	skip := map[string]bool{}
	for _, e := range exclude {
		skip[roleKey(e)] = true
	}
	members := make([]Invoker, 0, len(r.agents))
	for _, a := range r.agents {
		if !skip[roleKey(a.Role())] {
			members = append(members, a)
		}
	}
	return NewDirectory(members...)
}
