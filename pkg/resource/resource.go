package resource

import (
	"fmt"
	"sort"
	"strings"
)

// Resource is a piece of content with a stable hash identity and a mutable tag set
type Resource struct {
	hash    string
	content string
	tags    map[string]struct{}
}

// New creates a resource, hashing its content.
// Tags are stored as given; an empty tag set is allowed.
func New(tags []string, content string) *Resource {
	return &Resource{
		hash:    Hash(content),
		content: content,
		tags:    toSet(tags),
	}
}

// Restore rebuilds a resource from persisted fields without rehashing.
func Restore(hash, content string, tags []string) *Resource {
	return &Resource{
		hash:    hash,
		content: content,
		tags:    toSet(tags),
	}
}

func toSet(tags []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		set[tag] = struct{}{}
	}
	return set
}

// Hash returns the content hash
func (r *Resource) Hash() string {
	return r.hash
}

// Content returns the content body
func (r *Resource) Content() string {
	return r.content
}

// Tags returns the tags in sorted order
func (r *Resource) Tags() []string {
	tags := make([]string, 0, len(r.tags))
	for tag := range r.tags {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// HasTag reports whether the resource carries tag
func (r *Resource) HasTag(tag string) bool {
	_, ok := r.tags[tag]
	return ok
}

// TagCount returns the number of tags
func (r *Resource) TagCount() int {
	return len(r.tags)
}

// RemoveTag removes tag from the resource.
// It returns false when the tag was not present.
func (r *Resource) RemoveTag(tag string) bool {
	if _, ok := r.tags[tag]; !ok {
		return false
	}
	delete(r.tags, tag)
	return true
}

// Clone returns a deep copy of the resource
func (r *Resource) Clone() *Resource {
	tags := make(map[string]struct{}, len(r.tags))
	for tag := range r.tags {
		tags[tag] = struct{}{}
	}
	return &Resource{
		hash:    r.hash,
		content: r.content,
		tags:    tags,
	}
}

// Equal reports whether two resources share the same identity.
// Tag state is ignored.
func (r *Resource) Equal(other *Resource) bool {
	if r == nil || other == nil {
		return r == other
	}
	return r.hash == other.hash
}

// Compare orders resources by hash, for use with slices.SortFunc
func Compare(a, b *Resource) int {
	return strings.Compare(a.hash, b.hash)
}

// String returns a short description for logs
func (r *Resource) String() string {
	return fmt.Sprintf("%s [%s]", r.hash, strings.Join(r.Tags(), " "))
}
