package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManual(t *testing.T) {
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	c := NewManual(start)
	assert.Equal(t, start, c.Now())

	c.Advance(36 * time.Hour)
	assert.Equal(t, start.Add(36*time.Hour), c.Now())

	loc := time.FixedZone("UTC+8", 8*3600)
	c.Set(time.Date(2024, 3, 5, 8, 0, 0, 0, loc))
	assert.Equal(t, time.UTC, c.Now().Location())
	assert.Equal(t, 0, c.Now().Hour())
}

func TestSystem(t *testing.T) {
	now := System{}.Now()
	assert.Equal(t, time.UTC, now.Location())
	assert.WithinDuration(t, time.Now(), now, time.Second)
}
