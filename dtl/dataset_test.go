package dtl

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewDatasetPartitionsCoverEverything(t *testing.T) {
	data := rangeDataset(10, 3)
	require.Equal(t, 10, data.Count())
	require.Equal(t, 3, data.NumPartitions())
	require.Equal(t, 1, data.NumFeatures())

	total := 0
	for _, part := range data.partitions {
		total += len(part)
	}
	require.Equal(t, 10, total)
}

func TestSampleIsDeterministicWithoutReplacement(t *testing.T) {
	data := rangeDataset(100, 4)

	first := data.Sample(0.2, 42)
	second := data.Sample(0.2, 42)
	require.Equal(t, first, second)
	require.Len(t, first, 20)

	seen := map[float64]bool{}
	for _, example := range first {
		require.False(t, seen[example.Label], "example drawn twice")
		seen[example.Label] = true
	}

	whole := data.Sample(1.0, 42)
	require.Len(t, whole, 100)
}

func TestMapReduceFoldsInPartitionOrder(t *testing.T) {
	data := rangeDataset(9, 3)
	order, err := MapReduce(data,
		func(part []Example) ([]float64, error) {
			return []float64{part[0].Label}, nil
		},
		func(x, y []float64) []float64 { return append(x, y...) },
	)
	require.NoError(t, err)
	require.Equal(t, []float64{1, 4, 7}, order)
}

func TestMapReducePropagatesErrors(t *testing.T) {
	data := rangeDataset(4, 2)
	_, err := MapReduce(data,
		func(part []Example) (int, error) {
			return 0, ErrInvariantViolation
		},
		func(x, y int) int { return x + y },
	)
	require.Error(t, err)
}
