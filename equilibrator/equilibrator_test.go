package equilibrator_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/routeflow/equilibrium/aon"
	"github.com/routeflow/equilibrium/demand"
	"github.com/routeflow/equilibrium/diagnostics"
	"github.com/routeflow/equilibrium/equilibrator"
	"github.com/routeflow/equilibrium/graph"
	"github.com/routeflow/equilibrium/trafficclass"
	"github.com/routeflow/equilibrium/vdf"
)

func twoLinkParallelClass(t *testing.T) *trafficclass.Class {
	t.Helper()
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
	return c
}

func TestExecute_TwoLinkParallelNetwork_BFWConverges(t *testing.T) {
	c := twoLinkParallelClass(t)
	v := vdf.NewBPR(0.15, 4)

	eq, err := equilibrator.New([]*trafficclass.Class{c}, v, nil, equilibrator.Options{
		Algorithm:        equilibrator.BFW,
		MaxIterations:    30,
		RGapTarget:       1e-4,
		StepsBelowNeeded: 1,
	})
	require.NoError(t, err)

	res, err := eq.Execute(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Converged, "expected convergence within 30 BFW iterations, rgap=%v", res.RGap)
	assert.Less(t, res.RGap, 1e-4)

	assert.InDelta(t, 79.2, c.Results.LinkLoads[0], 1.5)
	assert.InDelta(t, 120.8, c.Results.LinkLoads[1], 1.5)
}

func TestExecute_MaxIterOne_ProducesAonSeed(t *testing.T) {
	c := twoLinkParallelClass(t)
	v := vdf.NewBPR(0.15, 4)

	eq, err := equilibrator.New([]*trafficclass.Class{c}, v, nil, equilibrator.Options{
		Algorithm:        equilibrator.BFW,
		MaxIterations:    1,
		RGapTarget:       1e-4,
		StepsBelowNeeded: 1,
	})
	require.NoError(t, err)

	res, err := eq.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Iterations)
	assert.False(t, res.Converged)

	// At max_iter=1, AoN loads all 200 trips onto the cheaper free-flow
	// link (L1, fft=10) entirely, since no direction/stepsize math runs.
	assert.Equal(t, 200.0, c.Results.LinkLoads[0])
	assert.Equal(t, 0.0, c.Results.LinkLoads[1])
}

func TestExecute_MSA_ProducesRunningAverage(t *testing.T) {
	// A flat VDF (alpha=0) makes travel time constant regardless of
	// flow, so the cost never changes and MSA's fixed lambda=1/iter
	// schedule produces the running average of every iteration's AoN
	// result, which here is the same single-link assignment every time.
	g, err := graph.Prepare(graph.LinkSet{
		Links: []graph.Link{
			{LinkID: 1, ANode: 1, BNode: 2, FreeFlowTime: 10, Capacity: 100},
		},
		Centroids: []int64{1, 2},
	})
	require.NoError(t, err)
	copy(g.Cost(), g.FreeFlowTime())

	m, err := demand.NewMatrix(2)
	require.NoError(t, err)
	require.NoError(t, m.Set(0, 1, 50))

	c, err := trafficclass.New("car", g, m, 1.0)
	require.NoError(t, err)

	v := vdf.NewBPR(0, 4)
	eq, err := equilibrator.New([]*trafficclass.Class{c}, v, nil, equilibrator.Options{
		Algorithm: equilibrator.MSA,
		// A flat VDF keeps cost constant regardless of flow, so the AoN
		// result y_k is identical every iteration; the running average
		// of a constant sequence converges immediately, typically within
		// 1-2 iterations. A large StepsBelowNeeded forces the full budget
		// to run so every iteration's averaging step is exercised.
		MaxIterations:    5,
		RGapTarget:       1e-9,
		StepsBelowNeeded: 100,
	})
	require.NoError(t, err)

	res, err := eq.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, res.Iterations)
	assert.False(t, res.Converged)
	// Every iteration's AoN loads the same 50 trips onto the one link;
	// the running average of a constant sequence is that constant.
	assert.InDelta(t, 50.0, c.Results.LinkLoads[0], 1e-9)
}

func TestExecute_ZeroDemand_RGapReportedAsZero(t *testing.T) {
	g, err := graph.Prepare(graph.LinkSet{
		Links: []graph.Link{
			{LinkID: 1, ANode: 1, BNode: 2, FreeFlowTime: 10, Capacity: 100},
		},
		Centroids: []int64{1, 2},
	})
	require.NoError(t, err)
	copy(g.Cost(), g.FreeFlowTime())

	m, err := demand.NewMatrix(2)
	require.NoError(t, err)

	c, err := trafficclass.New("car", g, m, 1.0)
	require.NoError(t, err)

	v := vdf.NewBPR(0.15, 4)
	eq, err := equilibrator.New([]*trafficclass.Class{c}, v, nil, equilibrator.Options{
		Algorithm:        equilibrator.BFW,
		MaxIterations:    3,
		RGapTarget:       1e-4,
		StepsBelowNeeded: 1,
	})
	require.NoError(t, err)

	res, err := eq.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.RGap)
	for _, l := range c.Results.LinkLoads {
		assert.Equal(t, 0.0, l)
	}
}

func TestExecute_SingleLinkSingleOD_ExactLoad(t *testing.T) {
	g, err := graph.Prepare(graph.LinkSet{
		Links: []graph.Link{
			{LinkID: 1, ANode: 1, BNode: 2, FreeFlowTime: 10, Capacity: 100},
		},
		Centroids: []int64{1, 2},
	})
	require.NoError(t, err)
	copy(g.Cost(), g.FreeFlowTime())

	m, err := demand.NewMatrix(2)
	require.NoError(t, err)
	require.NoError(t, m.Set(0, 1, 37))

	c, err := trafficclass.New("car", g, m, 2.0)
	require.NoError(t, err)

	v := vdf.NewBPR(0.15, 4)
	eq, err := equilibrator.New([]*trafficclass.Class{c}, v, nil, equilibrator.Options{
		Algorithm:        equilibrator.BFW,
		MaxIterations:    3,
		RGapTarget:       1e-6,
		StepsBelowNeeded: 1,
	})
	require.NoError(t, err)

	_, err = eq.Execute(context.Background())
	require.NoError(t, err)
	// A single path absorbs all demand regardless of pce scaling applied
	// at the aggregate level; per-class link loads stay in raw trips.
	assert.Equal(t, 37.0, c.Results.LinkLoads[0])
}

func TestExecute_TwoClass_PCEWeightedAggregate(t *testing.T) {
	links := []graph.Link{
		{LinkID: 1, ANode: 1, BNode: 2, FreeFlowTime: 5, Capacity: 500},
		{LinkID: 2, ANode: 2, BNode: 3, FreeFlowTime: 5, Capacity: 500},
		{LinkID: 3, ANode: 3, BNode: 4, FreeFlowTime: 5, Capacity: 500},
	}
	gCar, err := graph.Prepare(graph.LinkSet{Links: links, Centroids: []int64{1, 4}})
	require.NoError(t, err)
	copy(gCar.Cost(), gCar.FreeFlowTime())

	gTruck, err := graph.Prepare(graph.LinkSet{Links: links, Centroids: []int64{1, 4}})
	require.NoError(t, err)
	copy(gTruck.Cost(), gTruck.FreeFlowTime())

	mCar, err := demand.NewMatrix(2)
	require.NoError(t, err)
	require.NoError(t, mCar.Set(0, 1, 100))
	mTruck, err := demand.NewMatrix(2)
	require.NoError(t, err)
	require.NoError(t, mTruck.Set(0, 1, 100))

	car, err := trafficclass.New("car", gCar, mCar, 1.0)
	require.NoError(t, err)
	truck, err := trafficclass.New("truck", gTruck, mTruck, 2.0)
	require.NoError(t, err)

	v := vdf.NewBPR(0.15, 4)
	eq, err := equilibrator.New([]*trafficclass.Class{car, truck}, v, nil, equilibrator.Options{
		Algorithm:        equilibrator.BFW,
		MaxIterations:    10,
		RGapTarget:       1e-6,
		StepsBelowNeeded: 1,
	})
	require.NoError(t, err)

	_, err = eq.Execute(context.Background())
	require.NoError(t, err)

	// A single serial path forces every trip of both classes onto every
	// link: raw per-class loads are 100 each, never PCE-scaled.
	for _, l := range car.Results.LinkLoads {
		assert.InDelta(t, 100.0, l, 1e-6)
	}
	for _, l := range truck.Results.LinkLoads {
		assert.InDelta(t, 100.0, l, 1e-6)
	}
}

func TestNew_RejectsEmptyClasses(t *testing.T) {
	v := vdf.NewBPR(0.15, 4)
	_, err := equilibrator.New(nil, v, nil, equilibrator.Options{MaxIterations: 1, RGapTarget: 1e-4, StepsBelowNeeded: 1})
	assert.ErrorIs(t, err, equilibrator.ErrNoClasses)
}

func TestNew_RejectsNilVDF(t *testing.T) {
	c := twoLinkParallelClass(t)
	_, err := equilibrator.New([]*trafficclass.Class{c}, nil, nil, equilibrator.Options{MaxIterations: 1, RGapTarget: 1e-4, StepsBelowNeeded: 1})
	assert.ErrorIs(t, err, equilibrator.ErrNilVDF)
}

func TestNew_RejectsInvalidOptions(t *testing.T) {
	c := twoLinkParallelClass(t)
	v := vdf.NewBPR(0.15, 4)
	_, err := equilibrator.New([]*trafficclass.Class{c}, v, nil, equilibrator.Options{MaxIterations: 0, RGapTarget: 1e-4, StepsBelowNeeded: 1})
	assert.ErrorIs(t, err, equilibrator.ErrInvalidOptions)
}

func disconnectedPairClass(t *testing.T) *trafficclass.Class {
	t.Helper()
	g, err := graph.Prepare(graph.LinkSet{
		Links: []graph.Link{
			{LinkID: 1, ANode: 1, BNode: 2, FreeFlowTime: 1, Capacity: 10},
			{LinkID: 2, ANode: 3, BNode: 4, FreeFlowTime: 1, Capacity: 10},
		},
		Centroids: []int64{1, 3},
	})
	require.NoError(t, err)
	copy(g.Cost(), g.FreeFlowTime())

	m, err := demand.NewMatrix(2)
	require.NoError(t, err)
	require.NoError(t, m.Set(0, 1, 40)) // centroid 1 -> centroid 3, disconnected

	c, err := trafficclass.New("car", g, m, 1.0)
	require.NoError(t, err)
	return c
}

func TestExecute_UnreachableDemand_ReportedOnResult(t *testing.T) {
	c := disconnectedPairClass(t)
	v := vdf.NewBPR(0.15, 4)

	eq, err := equilibrator.New([]*trafficclass.Class{c}, v, nil, equilibrator.Options{
		Algorithm:        equilibrator.BFW,
		MaxIterations:    3,
		RGapTarget:       1e-4,
		StepsBelowNeeded: 1,
	})
	require.NoError(t, err)

	res, err := eq.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 40.0, res.UnreachableTrips)
	assert.Equal(t, 1, res.UnreachableCount)
	require.NotEmpty(t, res.History)
	last := res.History[len(res.History)-1]
	assert.Equal(t, 40.0, last.UnreachableTrips)
	assert.Equal(t, 1, last.UnreachableCount)
}

func TestExecute_FailOnUnreachable_ReturnsError(t *testing.T) {
	c := disconnectedPairClass(t)
	v := vdf.NewBPR(0.15, 4)

	eq, err := equilibrator.New([]*trafficclass.Class{c}, v, nil, equilibrator.Options{
		Algorithm:         equilibrator.BFW,
		MaxIterations:     3,
		RGapTarget:        1e-4,
		StepsBelowNeeded:  1,
		FailOnUnreachable: true,
	})
	require.NoError(t, err)

	_, err = eq.Execute(context.Background())
	assert.ErrorIs(t, err, aon.ErrUnreachableDemand)
}

func TestExecute_Cancelled(t *testing.T) {
	c := twoLinkParallelClass(t)
	v := vdf.NewBPR(0.15, 4)
	eq, err := equilibrator.New([]*trafficclass.Class{c}, v, &diagnostics.Slice{}, equilibrator.Options{
		Algorithm:        equilibrator.BFW,
		MaxIterations:    30,
		RGapTarget:       1e-4,
		StepsBelowNeeded: 1,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = eq.Execute(ctx)
	assert.ErrorIs(t, err, equilibrator.ErrCancelled)
}
