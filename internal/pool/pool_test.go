package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPool_AddContainsRemove(t *testing.T) {
	p := New()
	assert.False(t, p.Contains(1))

	p.Add(1)
	assert.True(t, p.Contains(1))
	assert.Equal(t, 1, p.Len())

	p.Remove(1)
	assert.False(t, p.Contains(1))
	assert.Equal(t, 0, p.Len())
}

func TestPool_RandomMemberExcluding(t *testing.T) {
	p := New()
	_, ok := p.RandomMemberExcluding(1)
	assert.False(t, ok)

	p.Add(1)
	_, ok = p.RandomMemberExcluding(1)
	assert.False(t, ok, "only member is the excluded user")

	p.Add(2)
	uid, ok := p.RandomMemberExcluding(1)
	assert.True(t, ok)
	assert.Equal(t, uint(2), uid)
}
