package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeTotals(t *testing.T) {
	got := ComputeTotals(10000)
	assert.Equal(t, 10000, got.SubtotalCents)
	assert.Equal(t, 1600, got.TaxCents)
	assert.Equal(t, 11600, got.TotalCents)
}

func TestComputeTotalsTruncatesTax(t *testing.T) {
	// 16% of 99 cents is 15.84; integer math keeps 15.
	got := ComputeTotals(99)
	assert.Equal(t, 15, got.TaxCents)
	assert.Equal(t, 114, got.TotalCents)
}

func TestComputeTotalsZero(t *testing.T) {
	got := ComputeTotals(0)
	assert.Zero(t, got.TaxCents)
	assert.Zero(t, got.TotalCents)
}
