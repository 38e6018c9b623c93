package algorithms_test

import (
	"testing"

	"github.com/pbudner/frictionminer/algorithms"
	"github.com/stretchr/testify/require"
)

func TestConstructorsReturnNamedTypes(t *testing.T) {
	var timeGap *algorithms.TimeGapDetector
	timeGap, err := algorithms.NewTimeGapDetector(algorithms.DefaultTimeGapConfig())
	require.NoError(t, err)
	require.Equal(t, algorithms.DefaultTimeGapConfig(), timeGap.Config())

	var loop *algorithms.LoopDetector
	loop, err = algorithms.NewLoopDetector(algorithms.LoopConfig{Threshold: 3})
	require.NoError(t, err)
	require.Equal(t, 3, loop.Config().Threshold)

	var human *algorithms.HumanDependencyDetector
	human, err = algorithms.NewHumanDependencyDetector(algorithms.DefaultHumanDependencyConfig())
	require.NoError(t, err)
	require.Equal(t, algorithms.HumanDependencyName, human.Name())

	detectors := []algorithms.Detector{timeGap, loop, human}
	require.Len(t, detectors, 3)
}
