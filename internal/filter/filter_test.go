package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilter_Check(t *testing.T) {
	f := New([]string{"scam", "spamword"})

	verdict, word := f.Check("hello there")
	assert.Equal(t, Clean, verdict)
	assert.Empty(t, word)

	verdict, word = f.Check("this is a SCAM alert")
	assert.Equal(t, BlockedWord, verdict)
	assert.Equal(t, "scam", word)

	verdict, _ = f.Check("visit https://example.com now")
	assert.Equal(t, Forbidden, verdict)

	verdict, _ = f.Check("dm me @help5_bot")
	assert.Equal(t, Forbidden, verdict)
}

func TestFilter_AddRemoveWord(t *testing.T) {
	f := New(nil)
	f.AddWord("Denylisted")

	verdict, word := f.Check("this is Denylisted content")
	assert.Equal(t, BlockedWord, verdict)
	assert.Equal(t, "denylisted", word)

	f.RemoveWord("denylisted")
	verdict, _ = f.Check("this is denylisted content")
	assert.Equal(t, Clean, verdict)
}

func TestStrikeCounter(t *testing.T) {
	sc := NewStrikeCounter()
	assert.Equal(t, 0, sc.Count(1))
	assert.Equal(t, 1, sc.Increment(1))
	assert.Equal(t, 2, sc.Increment(1))
	assert.Equal(t, 2, sc.Count(1))

	sc.Reset(1)
	assert.Equal(t, 0, sc.Count(1))
}
