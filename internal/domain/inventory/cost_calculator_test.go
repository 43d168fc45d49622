package inventory

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCostCalculator(t *testing.T) {
	// 10 u a 100 + 10 u a 200 = 150
	got := CostCalculator(decimal.NewFromInt(10), decimal.NewFromInt(100), decimal.NewFromInt(10), decimal.NewFromInt(200))
	assert.True(t, got.Equal(decimal.NewFromInt(150)), "got %s", got)

	assert.True(t, CostCalculator(decimal.Zero, decimal.Zero, decimal.Zero, decimal.NewFromInt(5)).IsZero())
}

func TestWeightedCost(t *testing.T) {
	got := WeightedCost(3, decimal.NewFromInt(1000), 1, decimal.NewFromInt(2000))
	assert.Equal(t, "1250", got.String())

	assert.Equal(t, "800", WeightedCost(0, decimal.NewFromInt(1000), 5, decimal.NewFromInt(800)).String())
}
