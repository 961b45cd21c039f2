package demand_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/routeflow/equilibrium/demand"
)

func TestMatrix_SetAt(t *testing.T) {
	m, err := demand.NewMatrix(3)
	require.NoError(t, err)
	require.NoError(t, m.Set(0, 1, 200))
	v, err := m.At(0, 1)
	require.NoError(t, err)
	assert.Equal(t, 200.0, v)
}

func TestMatrix_RowSum(t *testing.T) {
	m, err := demand.NewMatrix(3)
	require.NoError(t, err)
	require.NoError(t, m.Set(0, 1, 100))
	require.NoError(t, m.Set(0, 2, 50))
	assert.Equal(t, 150.0, m.RowSum(0))
	assert.Equal(t, 0.0, m.RowSum(1))
}

func TestMatrix_NonzeroOrigins(t *testing.T) {
	m, err := demand.NewMatrix(3)
	require.NoError(t, err)
	require.NoError(t, m.Set(2, 0, 5))
	assert.Equal(t, []int{2}, m.NonzeroOrigins())
}

func TestMatrix_NegativeTrips(t *testing.T) {
	m, err := demand.NewMatrix(2)
	require.NoError(t, err)
	err = m.Set(0, 0, -1)
	assert.ErrorIs(t, err, demand.ErrNegativeTrips)
}

func TestMatrix_OutOfBounds(t *testing.T) {
	m, err := demand.NewMatrix(2)
	require.NoError(t, err)
	_, err = m.At(5, 0)
	assert.ErrorIs(t, err, demand.ErrIndexOutOfBounds)
}

func TestNewMatrix_InvalidDimensions(t *testing.T) {
	_, err := demand.NewMatrix(0)
	assert.ErrorIs(t, err, demand.ErrInvalidDimensions)
}
