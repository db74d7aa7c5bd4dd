// Package view tracks per-session interaction state for the graph canvas:
// the hover target and the two-click path selection flow. The machine holds
// no timers; grace delays around hover flicker belong to the rendering
// collaborator. Path computation runs synchronously against whatever
// filtered subgraph the host passes in, so a stale focus or a node that just
// filtered out degrades to "no path" rather than an error.
package view

import (
	"github.com/kanbu/wikigraph/graph"
	"github.com/kanbu/wikigraph/graph/traverse"
)

// Phase is the interaction machine's current mode.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseHovering   Phase = "hovering"
	PhasePickingEnd Phase = "picking-end" // path start chosen, waiting for the end node
	PhasePathFound  Phase = "path-found"
)

// State is the machine's externally visible value. The host reads and
// persists it across render passes for stable hover/path UX.
type State struct {
	Phase Phase  `json:"phase"`
	Hover string `json:"hover,omitempty"` // node under the pointer, in any phase
	Start string `json:"start,omitempty"` // chosen path start
	End   string `json:"end,omitempty"`   // chosen path end, set with Path

	// Path is the last computed result, set only in PhasePathFound and nil
	// in every other phase. Found=false there means "no path between Start
	// and End", an informational outcome the host renders as a notice.
	Path *traverse.PathResult `json:"path,omitempty"`
}

// Machine is the interaction state machine. Not safe for concurrent use; the
// host serializes interaction events per session.
type Machine struct {
	state State
}

// NewMachine returns a machine in the idle phase.
func NewMachine() *Machine {
	return &Machine{state: State{Phase: PhaseIdle}}
}

// State returns the current state value.
func (m *Machine) State() State {
	return m.state
}

// PointerEnter records the node under the pointer. From idle this enters the
// hovering phase; during path picking or an active path result the phase is
// preserved and only the hover target updates, so browsing nodes never
// cancels an in-flight selection.
func (m *Machine) PointerEnter(nodeID string) {
	m.state.Hover = nodeID
	if m.state.Phase == PhaseIdle {
		m.state.Phase = PhaseHovering
	}
}

// PointerLeave clears the hover target. A plain hover collapses back to
// idle; picking and path phases persist.
func (m *Machine) PointerLeave() {
	m.state.Hover = ""
	if m.state.Phase == PhaseHovering {
		m.state.Phase = PhaseIdle
	}
}

// DesignatePath handles a "find path" action on a node:
//
//   - idle/hovering: the node becomes the path start
//   - picking-end, same node again: restart picking from that node instead
//     of completing a zero-length path
//   - picking-end, distinct node: compute the shortest path over the
//     currently filtered subgraph and enter path-found
//   - path-found: discard the result and restart picking from the node
func (m *Machine) DesignatePath(nodeID string, nodes []graph.Node, edges []graph.Edge) {
	switch m.state.Phase {
	case PhasePickingEnd:
		if nodeID == m.state.Start {
			m.state.Start = nodeID
			return
		}
		m.state.End = nodeID
		path := traverse.ShortestPath(nodes, edges, m.state.Start, nodeID)
		m.state.Path = &path
		m.state.Phase = PhasePathFound
	default:
		m.state.Start = nodeID
		m.state.End = ""
		m.state.Path = nil
		m.state.Phase = PhasePickingEnd
	}
}

// Clear resets the machine to idle from any state.
func (m *Machine) Clear() {
	m.state = State{Phase: PhaseIdle}
}
