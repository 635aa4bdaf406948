package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGrowth(t *testing.T) {
	assert.Equal(t, 0.0, growth(10, 0))
	assert.Equal(t, 100.0, growth(20, 10))
	assert.Equal(t, -50.0, growth(5, 10))
}
