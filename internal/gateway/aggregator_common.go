package gateway

import (
	"strings"
	"sync"

	"mcp-gateway/pkg/logging"
)

// defaultExcerptLen is the truncation length used for descriptions and
// instructions rendered in meta-tool output (spec.md §4.7, §4.9) when the
// caller has no tighter limit of its own.
const defaultExcerptLen = 60

// minExcerptLen is the floor below which truncateExcerpt stops shortening
// further, leaving room for at least one rune of content plus "...".
const minExcerptLen = 4

// truncateExcerpt collapses s to a single line and cuts it to at most
// maxLen runes, appending "..." when it had to cut; the cut may fall
// mid-word. Used by Formatter to keep upstream-supplied descriptions and
// instructions from blowing up the text listings spec.md §4.9 renders.
func truncateExcerpt(s string, maxLen int) string {
	if maxLen < minExcerptLen {
		maxLen = minExcerptLen
	}

	s = strings.Join(strings.Fields(s), " ")

	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen-3]) + "..."
	}
	return s
}

// defaultSessionKey substitutes "default" for an empty sessionId, per
// spec.md §4.3 step 1.
func defaultSessionKey(sessionID SessionID) SessionID {
	if sessionID == "" {
		return DefaultSessionID
	}
	return sessionID
}

// sessionCache is the generic "whole cache per session, invalidated as a
// unit" shape both aggregators share (spec.md §3, §4.3).
type sessionCache[T any] struct {
	mu    sync.RWMutex
	byKey map[SessionID][]T
}

func newSessionCache[T any]() *sessionCache[T] {
	return &sessionCache[T]{byKey: make(map[SessionID][]T)}
}

func (c *sessionCache[T]) get(sessionID SessionID) ([]T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entries, ok := c.byKey[sessionID]
	return entries, ok
}

func (c *sessionCache[T]) set(sessionID SessionID, entries []T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byKey[sessionID] = entries
}

func (c *sessionCache[T]) invalidate(sessionID SessionID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.byKey[sessionID]; ok {
		delete(c.byKey, sessionID)
		logging.Debug("Aggregator", "cache invalidated for session %s", logging.TruncateSessionID(string(sessionID)))
	}
}
