package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testEngine() *Engine {
	return NewEngine(map[string]float64{
		"clone":   1.0,
		"destroy": 0.8,
		"move":    0.6,
		"rotate":  0.1,
		"recall":  0.2,
		"examine": 0,
	})
}

func TestCost(t *testing.T) {
	e := testEngine()

	assert.Equal(t, int64(100), e.Cost("clone", 100))
	assert.Equal(t, int64(80), e.Cost("destroy", 100))
	assert.Equal(t, int64(60), e.Cost("move", 100))
	assert.Equal(t, int64(10), e.Cost("rotate", 100))
	assert.Equal(t, int64(20), e.Cost("recall", 100))
	assert.Zero(t, e.Cost("examine", 100))
}

func TestCostRoundsHalfUp(t *testing.T) {
	e := testEngine()

	// 25 * 0.1 = 2.5 rounds up to 3.
	assert.Equal(t, int64(3), e.Cost("rotate", 25))
	// 24 * 0.1 = 2.4 rounds down to 2.
	assert.Equal(t, int64(2), e.Cost("rotate", 24))
	// 7 * 0.6 = 4.2 rounds down to 4.
	assert.Equal(t, int64(4), e.Cost("move", 7))
	// 9 * 0.6 = 5.4 rounds down; 9 * 0.8 = 7.2 rounds down.
	assert.Equal(t, int64(5), e.Cost("move", 9))
	assert.Equal(t, int64(7), e.Cost("destroy", 9))
}

func TestCostEdges(t *testing.T) {
	e := testEngine()

	assert.Zero(t, e.Cost("teleport", 100), "unknown action")
	assert.Zero(t, e.Cost("clone", 0))
	assert.Zero(t, e.Cost("clone", -5))
}

func TestCostIsPure(t *testing.T) {
	e := testEngine()
	for i := 0; i < 100; i++ {
		assert.Equal(t, int64(80), e.Cost("destroy", 100))
	}
}
