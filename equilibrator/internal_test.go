package equilibrator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/routeflow/equilibrium/demand"
	"github.com/routeflow/equilibrium/graph"
	"github.com/routeflow/equilibrium/trafficclass"
	"github.com/routeflow/equilibrium/vdf"
)

// TestBFWCoefficients_SumToOne is a white-box test covering the
// invariant beta0+beta1+beta2 == 1 with every beta >= 0, exercised
// directly on package-private state after a run long enough to reach
// the biconjugate branch of the direction state machine.
func TestBFWCoefficients_SumToOne(t *testing.T) {
	g, err := graph.Prepare(graph.LinkSet{
		Links: []graph.Link{
			{LinkID: 1, ANode: 1, BNode: 2, FreeFlowTime: 10, Capacity: 100},
			{LinkID: 2, ANode: 1, BNode: 2, FreeFlowTime: 12, Capacity: 200},
		},
		Centroids: []int64{1, 2},
	})
	require.NoError(t, err)
	copy(g.Cost(), g.FreeFlowTime())

	m, err := demand.NewMatrix(2)
	require.NoError(t, err)
	require.NoError(t, m.Set(0, 1, 200))

	c, err := trafficclass.New("car", g, m, 1.0)
	require.NoError(t, err)

	v := vdf.NewBPR(0.15, 4)
	eq, err := New([]*trafficclass.Class{c}, v, nil, Options{
		Algorithm:        BFW,
		MaxIterations:    10,
		RGapTarget:       1e-9,
		StepsBelowNeeded: 100,
	})
	require.NoError(t, err)

	_, err = eq.Execute(context.Background())
	require.NoError(t, err)

	assert.GreaterOrEqual(t, eq.betas[0], 0.0)
	assert.GreaterOrEqual(t, eq.betas[1], 0.0)
	assert.GreaterOrEqual(t, eq.betas[2], 0.0)
	assert.InDelta(t, 1.0, eq.betas[0]+eq.betas[1]+eq.betas[2], 1e-9)
	assert.GreaterOrEqual(t, eq.stepsize, 0.0)
	assert.LessOrEqual(t, eq.stepsize, 1.0)
}

// TestDirectionStateMachine_SeedsFWThenCFW covers the FW seed of the
// direction state machine directly: a run stopped after iteration 2 has
// taken the plain Frank-Wolfe direction, leaving do_conjugate_step armed
// for a conjugate step at iteration 3 and do_fw_step cleared.
func TestDirectionStateMachine_SeedsFWThenCFW(t *testing.T) {
	g, err := graph.Prepare(graph.LinkSet{
		Links: []graph.Link{
			{LinkID: 1, ANode: 1, BNode: 2, FreeFlowTime: 10, Capacity: 100},
			{LinkID: 2, ANode: 1, BNode: 2, FreeFlowTime: 12, Capacity: 200},
		},
		Centroids: []int64{1, 2},
	})
	require.NoError(t, err)
	copy(g.Cost(), g.FreeFlowTime())

	m, err := demand.NewMatrix(2)
	require.NoError(t, err)
	require.NoError(t, m.Set(0, 1, 200))

	c, err := trafficclass.New("car", g, m, 1.0)
	require.NoError(t, err)

	v := vdf.NewBPR(0.15, 4)
	eq, err := New([]*trafficclass.Class{c}, v, nil, Options{
		Algorithm:        BFW,
		MaxIterations:    2,
		RGapTarget:       1e-12,
		StepsBelowNeeded: 100,
	})
	require.NoError(t, err)

	_, err = eq.Execute(context.Background())
	require.NoError(t, err)
	// After iteration 2 (the FW seed), do_conjugate_step must be armed
	// for iteration 3's CFW branch.
	assert.True(t, eq.doConjugateStep)
	assert.False(t, eq.doFWStep)
}
