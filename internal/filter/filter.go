// Package filter screens inbound relay content for blocked words and
// forbidden link/bot-handle patterns, and tracks per-user strike counts.
package filter

import (
	"regexp"
	"strings"
	"sync"
)

// Verdict classifies a screened message.
type Verdict int

const (
	// Clean means the message contains no blocked word or forbidden pattern.
	Clean Verdict = iota
	// BlockedWord means the message matched a moderator-denylisted word.
	BlockedWord
	// Forbidden means the message matched a link or bot-handle pattern.
	Forbidden
)

// forbiddenPattern matches http(s) links, bare www. links, dotted TLDs in
// the configured set, or a Telegram-style bot handle (@something_bot).
var forbiddenPattern = regexp.MustCompile(
	`(?i)(https?://|www\.|\.(com|net|org|me|io|ly|ru|ir|in|id)\b|@\w{5,32}bot\b)`,
)

// Filter holds the moderator-maintained blocked-word set and the compiled
// forbidden-content matcher. The word set is mutable at runtime (moderator
// blockword/unblockword commands) so access is guarded by a mutex.
type Filter struct {
	mu    sync.RWMutex
	words map[string]struct{}
}

// New creates a Filter seeded with the given blocked words (case-folded).
func New(words []string) *Filter {
	f := &Filter{words: make(map[string]struct{}, len(words))}
	for _, w := range words {
		f.words[strings.ToLower(w)] = struct{}{}
	}
	return f
}

// Check screens text and returns the matched verdict, and the offending
// word when the verdict is BlockedWord.
func (f *Filter) Check(text string) (Verdict, string) {
	lower := strings.ToLower(text)

	f.mu.RLock()
	for w := range f.words {
		if strings.Contains(lower, w) {
			f.mu.RUnlock()
			return BlockedWord, w
		}
	}
	f.mu.RUnlock()

	if forbiddenPattern.MatchString(text) {
		return Forbidden, ""
	}
	return Clean, ""
}

// AddWord adds a word to the blocked set.
func (f *Filter) AddWord(word string) {
	f.mu.Lock()
	f.words[strings.ToLower(word)] = struct{}{}
	f.mu.Unlock()
}

// RemoveWord removes a word from the blocked set.
func (f *Filter) RemoveWord(word string) {
	f.mu.Lock()
	delete(f.words, strings.ToLower(word))
	f.mu.Unlock()
}

// Words returns a snapshot of the current blocked-word set.
func (f *Filter) Words() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]string, 0, len(f.words))
	for w := range f.words {
		out = append(out, w)
	}
	return out
}
