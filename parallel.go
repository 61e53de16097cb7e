package duotext

import "sync"

// ParallelCacheLookup looks up every distinct node hash concurrently.
// It returns the hits keyed by hash and the misses, one node per hash, in
// first-seen order. With a nil cache every distinct node is a miss.
func ParallelCacheLookup(cache TranslationCache, nodes []TextNode, targetLang string) (map[string]string, []TextNode) {
	translations := make(map[string]string)

	var unique []TextNode
	seen := make(map[string]bool, len(nodes))
	for _, node := range nodes {
		if !seen[node.Hash] {
			seen[node.Hash] = true
			unique = append(unique, node)
		}
	}

	if cache == nil || len(unique) == 0 {
		return translations, unique
	}

	type lookupResult struct {
		value string
		found bool
	}
	results := make([]lookupResult, len(unique))

	var wg sync.WaitGroup
	for i, node := range unique {
		wg.Add(1)
		go func(i int, hash string) {
			defer wg.Done()
			val, ok := cache.Get(CacheKey(hash, targetLang))
			results[i] = lookupResult{value: val, found: ok}
		}(i, node.Hash)
	}
	wg.Wait()

	var misses []TextNode
	for i, node := range unique {
		if results[i].found {
			translations[node.Hash] = results[i].value
		} else {
			misses = append(misses, node)
		}
	}

	return translations, misses
}
