package webhook

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDeduper(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	d := NewDeduper(time.Minute)
	d.now = func() time.Time { return now }

	assert.False(t, d.Seen(1))
	assert.True(t, d.Seen(1))
	assert.False(t, d.Seen(2))

	now = now.Add(59 * time.Second)
	assert.True(t, d.Seen(1))

	now = now.Add(2 * time.Second)
	assert.Equal(t, 2, d.Prune())
	assert.Zero(t, d.Len())
	assert.False(t, d.Seen(1))

	d.Forget(1)
	assert.False(t, d.Seen(1))
}
