package cache

import (
	"context"
	"strings"
)

// Entry is one cached translation outcome. Entries are stored by value of
// their JSON form in the Redis backend and by pointer in the memory backend;
// callers must treat a returned entry as immutable.
type Entry struct {
	Text         string `json:"text"`
	Service      string `json:"service"`
	DetectedLang string `json:"detected_lang,omitempty"`
	SameLanguage bool   `json:"same_language,omitempty"`
}

// Store is a bounded translation result cache. The context bounds backend
// round trips; the in-memory implementation ignores it.
type Store interface {
	Get(ctx context.Context, key string) (*Entry, bool)
	Put(ctx context.Context, key string, value *Entry)
	Len(ctx context.Context) int
}

const keyTextPrefixRunes = 100

// Key builds the cache key for one translation request. Only the first 100
// runes of the trimmed text participate, so texts that differ beyond that
// prefix share a key. Bounded key size is intentional; do not widen it.
func Key(sourceLang, targetLang, text string) string {
	trimmed := strings.TrimSpace(text)
	if runes := []rune(trimmed); len(runes) > keyTextPrefixRunes {
		trimmed = string(runes[:keyTextPrefixRunes])
	}
	return sourceLang + "_" + targetLang + "_" + trimmed
}
