package view

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kanbu/wikigraph/graph"
)

func pathGraph() ([]graph.Node, []graph.Edge) {
	nodes := []graph.Node{
		{ID: "A", Kind: graph.KindPage},
		{ID: "B", Kind: graph.KindConcept},
		{ID: "C", Kind: graph.KindPerson},
	}
	edges := []graph.Edge{
		{Source: "A", Target: "B", Kind: graph.EdgeLink},
		{Source: "B", Target: "C", Kind: graph.EdgeMention},
	}
	return nodes, edges
}

func TestHoverFromIdle(t *testing.T) {
	m := NewMachine()

	m.PointerEnter("A")
	assert.Equal(t, PhaseHovering, m.State().Phase)
	assert.Equal(t, "A", m.State().Hover)

	m.PointerLeave()
	assert.Equal(t, PhaseIdle, m.State().Phase)
	assert.Empty(t, m.State().Hover)
}

func TestHoverDoesNotCancelPicking(t *testing.T) {
	nodes, edges := pathGraph()
	m := NewMachine()

	m.DesignatePath("A", nodes, edges)
	require.Equal(t, PhasePickingEnd, m.State().Phase)

	m.PointerEnter("B")
	assert.Equal(t, PhasePickingEnd, m.State().Phase, "hover must not cancel path picking")
	assert.Equal(t, "B", m.State().Hover)
	assert.Equal(t, "A", m.State().Start)

	m.PointerLeave()
	assert.Equal(t, PhasePickingEnd, m.State().Phase)
}

func TestTwoClickPathFlow(t *testing.T) {
	nodes, edges := pathGraph()
	m := NewMachine()

	m.DesignatePath("A", nodes, edges)
	assert.Equal(t, PhasePickingEnd, m.State().Phase)
	assert.Equal(t, "A", m.State().Start)

	m.DesignatePath("C", nodes, edges)
	st := m.State()
	assert.Equal(t, PhasePathFound, st.Phase)
	assert.Equal(t, "A", st.Start)
	assert.Equal(t, "C", st.End)
	require.True(t, st.Path.Found)
	assert.Equal(t, []string{"A", "B", "C"}, st.Path.NodeIDs)
}

func TestSameNodeRedesignationResetsStart(t *testing.T) {
	nodes, edges := pathGraph()
	m := NewMachine()

	m.DesignatePath("A", nodes, edges)
	m.DesignatePath("A", nodes, edges)

	st := m.State()
	assert.Equal(t, PhasePickingEnd, st.Phase, "same-node designation must not complete a zero-length path")
	assert.Equal(t, "A", st.Start)
	assert.Nil(t, st.Path)
}

func TestDesignationAfterPathRestartsPicking(t *testing.T) {
	nodes, edges := pathGraph()
	m := NewMachine()

	m.DesignatePath("A", nodes, edges)
	m.DesignatePath("C", nodes, edges)
	require.Equal(t, PhasePathFound, m.State().Phase)

	// No path history: a new designation discards the previous result
	m.DesignatePath("B", nodes, edges)
	st := m.State()
	assert.Equal(t, PhasePickingEnd, st.Phase)
	assert.Equal(t, "B", st.Start)
	assert.Empty(t, st.End)
	assert.Nil(t, st.Path)
}

func TestNoPathIsInformational(t *testing.T) {
	nodes := []graph.Node{
		{ID: "A", Kind: graph.KindPage},
		{ID: "Z", Kind: graph.KindPage},
	}
	m := NewMachine()

	m.DesignatePath("A", nodes, nil)
	m.DesignatePath("Z", nodes, nil)

	st := m.State()
	assert.Equal(t, PhasePathFound, st.Phase)
	require.NotNil(t, st.Path)
	assert.False(t, st.Path.Found, "disconnected endpoints yield a not-found result, not an error")
}

func TestDesignateNodeMissingFromFilteredGraph(t *testing.T) {
	nodes, edges := pathGraph()
	m := NewMachine()

	// The caller may pass transiently inconsistent state during UI updates
	m.DesignatePath("ghost", nodes, edges)
	m.DesignatePath("A", nodes, edges)

	st := m.State()
	assert.Equal(t, PhasePathFound, st.Phase)
	require.NotNil(t, st.Path)
	assert.False(t, st.Path.Found)
}

func TestStateJSONOmitsPathOutsidePathFound(t *testing.T) {
	nodes, edges := pathGraph()
	m := NewMachine()

	m.DesignatePath("A", nodes, edges)
	data, err := json.Marshal(m.State())
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"path"`)

	m.DesignatePath("C", nodes, edges)
	data, err = json.Marshal(m.State())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"path"`)
}

func TestClearFromAnyState(t *testing.T) {
	nodes, edges := pathGraph()

	phases := []func(m *Machine){
		func(m *Machine) {},
		func(m *Machine) { m.PointerEnter("A") },
		func(m *Machine) { m.DesignatePath("A", nodes, edges) },
		func(m *Machine) {
			m.DesignatePath("A", nodes, edges)
			m.DesignatePath("C", nodes, edges)
		},
	}

	for _, setup := range phases {
		m := NewMachine()
		setup(m)
		m.Clear()
		assert.Equal(t, State{Phase: PhaseIdle}, m.State())
	}
}
