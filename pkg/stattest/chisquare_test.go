package stattest

import (
	"testing"

	"prngkit/pkg/random"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChiSquareUniform_Perfect(t *testing.T) {
	sample := make([]float64, 0, 1000)
	for i := 0; i < 1000; i++ {
		sample = append(sample, (float64(i)+0.5)/1000)
	}

	res, err := ChiSquareUniform(sample, 10)
	require.NoError(t, err)
	assert.Equal(t, 10, res.Bins)
	assert.InDelta(t, 0, res.Statistic, 1e-9)
	assert.InDelta(t, 1, res.PValue, 1e-9)
}

func TestChiSquareUniform_Concentrated(t *testing.T) {
	sample := make([]float64, 1000)
	for i := range sample {
		sample[i] = 0.05
	}

	res, err := ChiSquareUniform(sample, 10)
	require.NoError(t, err)
	// 1000 in one cell, 100 expected in each: 8100 + 9*100
	assert.InDelta(t, 9000, res.Statistic, 1e-9)
	assert.Less(t, res.PValue, 1e-6)
}

func TestChiSquareUniform_Generators(t *testing.T) {
	s := random.NewSampler(random.NewMCG(564853681, 790941697))
	s.Fill(10000)

	res, err := ChiSquareUniform(s.Values(), 10)
	require.NoError(t, err)
	assert.Greater(t, res.PValue, 0.001)
}

func TestChiSquareUniform_Errors(t *testing.T) {
	_, err := ChiSquareUniform([]float64{0.1, 0.2}, 1)
	assert.ErrorIs(t, err, ErrInvalidBins)

	_, err = ChiSquareUniform(nil, 10)
	assert.ErrorIs(t, err, ErrSampleTooSmall)
}
