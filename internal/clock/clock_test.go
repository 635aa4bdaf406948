package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFakeFiresDueTimersInOrder(t *testing.T) {
	c := NewFake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	var order []string

	c.AfterFunc(2*time.Second, func() { order = append(order, "b") })
	c.AfterFunc(time.Second, func() { order = append(order, "a") })
	stopped := c.AfterFunc(time.Second, func() { order = append(order, "x") })
	assert.True(t, stopped.Stop())
	assert.False(t, stopped.Stop())

	c.Advance(500 * time.Millisecond)
	assert.Empty(t, order)
	assert.Equal(t, 2, c.Pending())

	c.Advance(2 * time.Second)
	assert.Equal(t, []string{"a", "b"}, order)
	assert.Zero(t, c.Pending())
}

func TestFakeTimerScheduledFromCallback(t *testing.T) {
	c := NewFake(time.Now())
	fired := 0
	c.AfterFunc(time.Second, func() {
		fired++
		c.AfterFunc(time.Second, func() { fired++ })
	})

	c.Advance(time.Second)
	assert.Equal(t, 1, fired)
	c.Advance(time.Second)
	assert.Equal(t, 2, fired)
}
