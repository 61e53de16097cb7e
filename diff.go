package duotext

import "strings"

// DiffResult represents the difference between two versions of a field set.
// Nodes are compared by the hash of their clean original, so re-annotating a
// field does not count as a change.
type DiffResult struct {
	Added     []TextNode     // Originals only present in the new version
	Removed   []TextNode     // Originals only present in the old version
	Unchanged []TextNode     // Originals present in both
	Modified  []ModifiedNode // Same field identity or context, different original
}

// ModifiedNode pairs the old and new node of an edited field.
type ModifiedNode struct {
	Old TextNode
	New TextNode
}

// DiffStats contains summary statistics for a diff.
type DiffStats struct {
	Added     int `json:"added"`
	Removed   int `json:"removed"`
	Unchanged int `json:"unchanged"`
	Modified  int `json:"modified"`
}

// Stats returns summary statistics for the diff.
func (d *DiffResult) Stats() DiffStats {
	return DiffStats{
		Added:     len(d.Added),
		Removed:   len(d.Removed),
		Unchanged: len(d.Unchanged),
		Modified:  len(d.Modified),
	}
}

// HasChanges returns true if there are any differences.
func (d *DiffResult) HasChanges() bool {
	return len(d.Added) > 0 || len(d.Removed) > 0 || len(d.Modified) > 0
}

// NeedsTranslation returns the new and edited nodes.
func (d *DiffResult) NeedsTranslation() []TextNode {
	result := make([]TextNode, 0, len(d.Added)+len(d.Modified))
	result = append(result, d.Added...)
	for _, m := range d.Modified {
		result = append(result, m.New)
	}
	return result
}

// DiffContent compares two node sets by original hash. Output order follows
// the input order; each hash is reported once.
func DiffContent(oldNodes, newNodes []TextNode) *DiffResult {
	result := &DiffResult{}

	oldHashes := hashSet(oldNodes)
	newHashes := hashSet(newNodes)

	seen := make(map[string]bool)
	for _, node := range oldNodes {
		if seen[node.Hash] {
			continue
		}
		seen[node.Hash] = true
		if newHashes[node.Hash] {
			result.Unchanged = append(result.Unchanged, node)
		} else {
			result.Removed = append(result.Removed, node)
		}
	}

	for _, node := range newNodes {
		if oldHashes[node.Hash] || seen["+"+node.Hash] {
			continue
		}
		seen["+"+node.Hash] = true
		result.Added = append(result.Added, node)
	}

	return result
}

// DiffContentWithContext also pairs removed and added nodes that share a
// field identity or a non-empty context, reporting them as Modified.
func DiffContentWithContext(oldNodes, newNodes []TextNode) *DiffResult {
	result := DiffContent(oldNodes, newNodes)
	if len(result.Added) == 0 || len(result.Removed) == 0 {
		return result
	}

	addedUsed := make([]bool, len(result.Added))
	var removed []TextNode

	for _, old := range result.Removed {
		match := -1
		for i, added := range result.Added {
			if addedUsed[i] {
				continue
			}
			if old.ID == added.ID || (old.Context != "" && old.Context == added.Context) {
				match = i
				break
			}
		}
		if match < 0 {
			removed = append(removed, old)
			continue
		}
		addedUsed[match] = true
		result.Modified = append(result.Modified, ModifiedNode{Old: old, New: result.Added[match]})
	}

	var added []TextNode
	for i, node := range result.Added {
		if !addedUsed[i] {
			added = append(added, node)
		}
	}
	result.Added = added
	result.Removed = removed

	return result
}

// Unannotated returns the non-blank nodes that carry no translation yet.
func Unannotated(nodes []TextNode) []TextNode {
	var out []TextNode
	for _, n := range nodes {
		if !HasTranslation(n.Raw) && strings.TrimSpace(n.Text) != "" {
			out = append(out, n)
		}
	}
	return out
}

func hashSet(nodes []TextNode) map[string]bool {
	set := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		set[n.Hash] = true
	}
	return set
}
