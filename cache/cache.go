// Package cache provides translation caches keyed by original hash and target language.
package cache

// TranslationCache is the interface for translation caching.
type TranslationCache interface {
	// Get retrieves a cached translation. Returns empty string and false if not found or expired.
	Get(key string) (string, bool)

	// Set stores a translation in the cache.
	Set(key string, value string) error
}

// Enumerable is implemented by caches whose contents can be listed for export.
type Enumerable interface {
	TranslationCache

	// Entries returns every live entry.
	Entries() (map[string]string, error)
}
