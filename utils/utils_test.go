package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPtrAndOrZero(t *testing.T) {
	p := Ptr(5)
	assert.Equal(t, 5, *p)
	assert.Equal(t, 5, OrZero(p))

	var nilInt *int
	assert.Equal(t, 0, OrZero(nilInt))
}

func TestUniquePositive(t *testing.T) {
	assert.Equal(t, []int{3, 1, 2}, UniquePositive([]int{3, 1, 3, 0, -4, 2, 1}))
	assert.Empty(t, UniquePositive(nil))
}
