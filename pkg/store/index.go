package store

import (
	"sort"

	"github.com/harun/scribe/pkg/resource"
	"github.com/harun/scribe/pkg/tokenize"
)

// index maps a key to a set of hashes
type index map[string]map[string]struct{}

func (ix index) add(key, hash string) {
	set, ok := ix[key]
	if !ok {
		set = make(map[string]struct{})
		ix[key] = set
	}
	set[hash] = struct{}{}
}

// remove drops hash from key's set and prunes the set when it empties
func (ix index) remove(key, hash string) {
	set, ok := ix[key]
	if !ok {
		return
	}
	delete(set, hash)
	if len(set) == 0 {
		delete(ix, key)
	}
}

func (ix index) lookup(key string) []string {
	set, ok := ix[key]
	if !ok {
		return nil
	}
	return sortedKeys(set)
}

func (ix index) keys() []string {
	keys := make([]string, 0, len(ix))
	for key := range ix {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func (ix index) export() map[string][]string {
	out := make(map[string][]string, len(ix))
	for key, set := range ix {
		out[key] = sortedKeys(set)
	}
	return out
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for key := range set {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

// tables holds the three structures a Store keeps consistent
type tables struct {
	resources map[string]*resource.Resource
	tags      index
	words     index
}

func newTables() *tables {
	return &tables{
		resources: make(map[string]*resource.Resource),
		tags:      make(index),
		words:     make(index),
	}
}

// insert stores r, replacing any resource held under the same hash.
// The replaced entry is detached first, so tags are never merged.
func (t *tables) insert(r *resource.Resource) (replaced bool) {
	if _, ok := t.resources[r.Hash()]; ok {
		t.detach(r.Hash())
		t.unindexWords(r)
		replaced = true
	}

	t.resources[r.Hash()] = r
	for _, tag := range r.Tags() {
		t.tags.add(tag, r.Hash())
	}
	t.indexWords(r)
	return replaced
}

// detach removes hash from the resource table and the tag index.
// The word index is left for the caller to rebuild.
func (t *tables) detach(hash string) *resource.Resource {
	r, ok := t.resources[hash]
	if !ok {
		return nil
	}
	delete(t.resources, hash)
	for _, tag := range r.Tags() {
		t.tags.remove(tag, hash)
	}
	return r
}

func (t *tables) indexWords(r *resource.Resource) {
	for _, token := range tokenize.Unique(r.Content()) {
		t.words.add(token, r.Hash())
	}
}

func (t *tables) unindexWords(r *resource.Resource) {
	for _, token := range tokenize.Unique(r.Content()) {
		t.words.remove(token, r.Hash())
	}
}

// reindex rebuilds the word index from the resource table
func (t *tables) reindex() {
	t.words = buildWordIndex(t.resources)
}

func buildWordIndex(resources map[string]*resource.Resource) index {
	words := make(index)
	for hash, r := range resources {
		for _, token := range tokenize.Unique(r.Content()) {
			words.add(token, hash)
		}
	}
	return words
}

func (t *tables) untagged() int {
	n := 0
	for _, r := range t.resources {
		if r.TagCount() == 0 {
			n++
		}
	}
	return n
}

func (t *tables) sortedHashes() []string {
	hashes := make([]string, 0, len(t.resources))
	for hash := range t.resources {
		hashes = append(hashes, hash)
	}
	sort.Strings(hashes)
	return hashes
}
