// Package layout selects per-mode positioning for the rendering collaborator.
// Hierarchical, radial and time-axis modes fix every positionable node;
// force mode only supplies simulation tuning parameters so the physics step
// stays interactively draggable. The selector never runs the simulation.
package layout

import (
	"math"
	"time"

	"github.com/kanbu/wikigraph/errors"
	"github.com/kanbu/wikigraph/graph"
)

// Mode identifies a layout parameterization.
type Mode string

const (
	ModeForce        Mode = "force"
	ModeHierarchical Mode = "hierarchical"
	ModeRadial       Mode = "radial"
	ModeTimeAxis     Mode = "timeaxis"
)

// ParseMode maps a wire-format mode string onto the closed mode set.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "force", "":
		return ModeForce, nil
	case "hierarchical", "tree":
		return ModeHierarchical, nil
	case "radial":
		return ModeRadial, nil
	case "timeaxis", "time", "timeline":
		return ModeTimeAxis, nil
	}
	return "", errors.Newf("unknown layout mode %q", s)
}

// Viewport is the drawable area in renderer units.
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Position is a fixed 2D coordinate hint for one node.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// EdgePhysics overrides simulation behavior per edge kind.
type EdgePhysics struct {
	Distance float64 `json:"distance"` // ideal edge length
	Strength float64 `json:"strength"` // spring strength 0..1
}

// ForceParams tunes the physics simulation for force mode. Values carry over
// the renderer's d3-force conventions: negative charge repels.
type ForceParams struct {
	ChargeStrength float64                        `json:"charge_strength"`
	LinkDistance   float64                        `json:"link_distance"`
	LinkStrength   float64                        `json:"link_strength"`
	EdgeOverrides  map[graph.EdgeKind]EdgePhysics `json:"edge_overrides,omitempty"`
}

// DefaultForceParams returns the tuning a view starts with. Mention edges sit
// slightly longer and looser than explicit links so page structure dominates
// the converged picture.
func DefaultForceParams() ForceParams {
	return ForceParams{
		ChargeStrength: -180,
		LinkDistance:   60,
		LinkStrength:   0.7,
		EdgeOverrides: map[graph.EdgeKind]EdgePhysics{
			graph.EdgeLink:    {Distance: 60, Strength: 0.9},
			graph.EdgeMention: {Distance: 90, Strength: 0.4},
		},
	}
}

// Config carries the selector's tunables; zero values fall back to defaults.
type Config struct {
	Force ForceParams `json:"force"`

	// TimeStart/TimeEnd bound the time-axis mapping. When nil the bounds
	// are derived from the data per call.
	TimeStart *time.Time `json:"time_start,omitempty"`
	TimeEnd   *time.Time `json:"time_end,omitempty"`
}

// Layout is the selector's output for one mode over one filtered subgraph.
type Layout struct {
	Mode Mode `json:"mode"`

	// Positions fixes node coordinates; nodes absent from the map are left
	// to the physics step (free-floating). Always empty in force mode.
	Positions map[string]Position `json:"positions,omitempty"`

	// Force carries simulation tuning; set only in force mode.
	Force *ForceParams `json:"force,omitempty"`
}

// Selector chooses layout parameterizations.
type Selector struct {
	cfg Config
}

// NewSelector creates a selector with the given tuning; zero-value force
// params are replaced with defaults.
func NewSelector(cfg Config) *Selector {
	if cfg.Force.ChargeStrength == 0 && cfg.Force.LinkDistance == 0 {
		cfg.Force = DefaultForceParams()
	}
	return &Selector{cfg: cfg}
}

// Select produces the layout for one mode. Nodes lacking attributes a mode
// requires (a timestamp for time-axis) are omitted from position assignment,
// never an error; switching modes over partial data must not crash.
func (s *Selector) Select(mode Mode, nodes []graph.Node, vp Viewport) Layout {
	switch mode {
	case ModeHierarchical:
		return Layout{Mode: mode, Positions: hierarchical(nodes, vp)}
	case ModeRadial:
		return Layout{Mode: mode, Positions: radial(nodes, vp)}
	case ModeTimeAxis:
		return Layout{Mode: mode, Positions: s.timeAxis(nodes, vp)}
	default:
		force := s.cfg.Force
		return Layout{Mode: ModeForce, Force: &force}
	}
}

// splitByPage partitions nodes into the page column and everything else,
// preserving input order within each part.
func splitByPage(nodes []graph.Node) (pages, others []graph.Node) {
	for _, n := range nodes {
		if n.Kind == graph.KindPage {
			pages = append(pages, n)
		} else {
			others = append(others, n)
		}
	}
	return pages, others
}

// hierarchical places pages in a left column and non-pages in a right column,
// each spaced evenly by index.
func hierarchical(nodes []graph.Node, vp Viewport) map[string]Position {
	pages, others := splitByPage(nodes)
	positions := make(map[string]Position, len(nodes))

	placeColumn(positions, pages, vp.Width*0.25, vp.Height)
	placeColumn(positions, others, vp.Width*0.75, vp.Height)
	return positions
}

func placeColumn(positions map[string]Position, nodes []graph.Node, x, height float64) {
	for i, n := range nodes {
		y := height * float64(i+1) / float64(len(nodes)+1)
		positions[n.ID] = Position{X: x, Y: y}
	}
}

// radial places pages on an inner ring and non-pages on an outer ring, both
// at evenly spaced angles around the viewport center.
func radial(nodes []graph.Node, vp Viewport) map[string]Position {
	pages, others := splitByPage(nodes)
	positions := make(map[string]Position, len(nodes))

	cx, cy := vp.Width/2, vp.Height/2
	minDim := math.Min(vp.Width, vp.Height)

	placeRing(positions, pages, cx, cy, minDim*0.22)
	placeRing(positions, others, cx, cy, minDim*0.42)
	return positions
}

func placeRing(positions map[string]Position, nodes []graph.Node, cx, cy, r float64) {
	for i, n := range nodes {
		angle := 2 * math.Pi * float64(i) / float64(max(len(nodes), 1))
		positions[n.ID] = Position{
			X: cx + r*math.Cos(angle),
			Y: cy + r*math.Sin(angle),
		}
	}
}

// timeAxis maps node timestamps linearly onto the horizontal axis between the
// configured bounds, or the observed min/max when unconfigured. Nodes without
// a timestamp get no position and free-float. Vertical placement is one row
// per kind so concurrent updates don't stack.
func (s *Selector) timeAxis(nodes []graph.Node, vp Viewport) map[string]Position {
	positions := make(map[string]Position)

	start, end := s.cfg.TimeStart, s.cfg.TimeEnd
	if start == nil || end == nil {
		lo, hi := observedBounds(nodes)
		if lo == nil {
			return positions // nothing has a timestamp
		}
		if start == nil {
			start = lo
		}
		if end == nil {
			end = hi
		}
	}

	span := end.Sub(*start)
	pad := vp.Width * 0.05

	rows := make(map[graph.NodeKind]float64, 4)
	for i, kind := range graph.AllNodeKinds() {
		rows[kind] = vp.Height * float64(i+1) / float64(len(graph.AllNodeKinds())+1)
	}

	for _, n := range nodes {
		if n.Updated == nil {
			continue
		}
		frac := 0.5
		if span > 0 {
			frac = float64(n.Updated.Sub(*start)) / float64(span)
		}
		frac = math.Max(0, math.Min(1, frac))
		positions[n.ID] = Position{
			X: pad + frac*(vp.Width-2*pad),
			Y: rows[n.Kind],
		}
	}
	return positions
}

func observedBounds(nodes []graph.Node) (lo, hi *time.Time) {
	for _, n := range nodes {
		if n.Updated == nil {
			continue
		}
		t := *n.Updated
		if lo == nil || t.Before(*lo) {
			tt := t
			lo = &tt
		}
		if hi == nil || t.After(*hi) {
			tt := t
			hi = &tt
		}
	}
	return lo, hi
}
