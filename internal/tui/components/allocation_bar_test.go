package components

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllocationBar_Render(t *testing.T) {
	bar := NewAllocationBar("Fixed Deposits", 25).WithWidth(20)
	out := bar.Render()
	assert.Contains(t, out, "Fixed Deposits")
	assert.Contains(t, out, "25.00%")
	assert.NotContains(t, out, "max")

	capped := NewAllocationBar("Post Office MIS", 45).WithCeiling(45).SetFocused(true)
	out = capped.Render()
	assert.Contains(t, out, "▸ ")
	assert.Contains(t, out, "max 45.00%")
}

func TestAllocationBar_Blocked(t *testing.T) {
	bar := NewAllocationBar("Senior Citizen Savings", 0).WithCeiling(0)
	assert.True(t, bar.Blocked())
	assert.Contains(t, bar.Render(), "not eligible")
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0, clamp(-3, 0, 10))
	assert.Equal(t, 10, clamp(30, 0, 10))
	assert.Equal(t, 4, clamp(4, 0, 10))
}
