package runner

import (
	"fmt"

	"github.com/alpinecapital/crewmesh/core"
)

// runState tracks the lifecycle of one run. It is owned by the goroutine
// executing the run.
type runState struct {
	id     string
	crew   string
	status core.Status
}

func newRunState(id, crewName string) *runState {
	return &runState{id: id, crew: crewName, status: core.StatusPending}
}

func (s *runState) moveTo(next core.Status) error {
	if !s.status.CanTransition(next) {
		return fmt.Errorf("run %s: illegal transition %s -> %s", s.id, s.status, next)
	}
	s.status = next
	return nil
}
