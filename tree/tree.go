// Package tree collapses a branching session history into the single active
// root-to-leaf branch.
package tree

import "time"

// Node is the part of an entry the resolver looks at. An empty ParentID, or
// one naming an entry that is not present, marks a root.
type Node struct {
	ID        string
	ParentID  string
	Timestamp time.Time
}

// Branch is the resolved path through a forest of entries.
type Branch[E any] struct {
	// Entries holds the chosen branch in root-first order.
	Entries []E
	// Anchor is the ID of the first entry, walking leaf to root, whose parent
	// has more than one child. Empty for a fully linear history.
	Anchor string
}

// Resolve picks the current branch of entries. The leaf with the latest
// timestamp is the tip; ties go to the entry that appears last. Entries on
// other branches are dropped. Entries with an empty ID are ignored, and for
// duplicate IDs the last occurrence wins.
func Resolve[E any](entries []E, node func(E) Node) Branch[E] {
	nodes := make([]Node, len(entries))
	index := make(map[string]int, len(entries))
	for i, e := range entries {
		n := node(e)
		nodes[i] = n
		if n.ID != "" {
			index[n.ID] = i
		}
	}

	children := make(map[string]int, len(index))
	for id, i := range index {
		p := nodes[i].ParentID
		if p == "" || p == id {
			continue
		}
		if _, ok := index[p]; ok {
			children[p]++
		}
	}

	tip := -1
	for id, i := range index {
		if children[id] > 0 {
			continue
		}
		if tip < 0 || later(nodes[i], i, nodes[tip], tip) {
			tip = i
		}
	}
	if tip < 0 {
		return Branch[E]{}
	}

	var path []int
	anchor := ""
	visited := make(map[string]bool)
	for i, ok := tip, true; ok; {
		n := nodes[i]
		if visited[n.ID] {
			break
		}
		visited[n.ID] = true
		path = append(path, i)

		parent, hasParent := index[n.ParentID]
		if hasParent && n.ParentID != n.ID {
			if anchor == "" && children[n.ParentID] > 1 {
				anchor = n.ID
			}
		}
		i, ok = parent, hasParent && n.ParentID != n.ID
	}

	out := make([]E, len(path))
	for k, i := range path {
		out[len(path)-1-k] = entries[i]
	}
	return Branch[E]{Entries: out, Anchor: anchor}
}

// later reports whether a (at position ia) is a more recent tip than b.
func later(a Node, ia int, b Node, ib int) bool {
	if !a.Timestamp.Equal(b.Timestamp) {
		return a.Timestamp.After(b.Timestamp)
	}
	return ia > ib
}

// SessionID builds the transcript id for a resolved branch: the bare session
// id for linear histories, "<sessionID>-<anchor>" otherwise.
func SessionID(sessionID, anchor string) string {
	if anchor == "" {
		return sessionID
	}
	return sessionID + "-" + anchor
}
