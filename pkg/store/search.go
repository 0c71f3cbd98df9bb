package store

import (
	"fmt"
	"sort"
	"time"

	"github.com/gobwas/glob"
)

// LookupTag returns the sorted hashes carrying tag, or nil for an unknown tag
func (s *Store) LookupTag(tag string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.t.tags.lookup(tag)
}

// LookupToken returns the sorted hashes whose content yields token, or nil for an unknown token
func (s *Store) LookupToken(token string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.t.words.lookup(token)
}

// Search returns the sorted hashes whose content yields every known term.
// Terms are matched as exact word index keys; terms missing from the index are ignored.
func (s *Store) Search(terms []string) []string {
	start := time.Now()
	defer func() { s.metrics.RecordOperation("search", time.Since(start), nil) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	var sets []map[string]struct{}
	for _, term := range terms {
		if set, ok := s.t.words[term]; ok {
			sets = append(sets, set)
		}
	}
	if len(sets) == 0 {
		return nil
	}

	sort.Slice(sets, func(i, j int) bool { return len(sets[i]) < len(sets[j]) })

	var out []string
	for hash := range sets[0] {
		inAll := true
		for _, set := range sets[1:] {
			if _, ok := set[hash]; !ok {
				inAll = false
				break
			}
		}
		if inAll {
			out = append(out, hash)
		}
	}
	sort.Strings(out)
	return out
}

// Tags returns every tag in sorted order
func (s *Store) Tags() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.t.tags.keys()
}

// MatchTags returns the sorted tags matching a glob pattern such as "lang/*"
func (s *Store) MatchTags(pattern string) ([]string, error) {
	g, err := glob.Compile(pattern, '/')
	if err != nil {
		return nil, fmt.Errorf("failed to compile tag pattern %q: %w", pattern, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []string
	for _, tag := range s.t.tags.keys() {
		if g.Match(tag) {
			out = append(out, tag)
		}
	}
	return out, nil
}

// TagIndex returns a copy of the tag index with sorted hash lists
func (s *Store) TagIndex() map[string][]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.t.tags.export()
}

// WordIndex returns a copy of the word index with sorted hash lists
func (s *Store) WordIndex() map[string][]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.t.words.export()
}
