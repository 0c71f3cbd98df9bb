// Package resource defines the content-addressed note type stored by scribe.
//
// Invariants:
// - A resource's hash is computed once from its content and never changes.
// - Tags are a set: duplicates collapse and iteration is in sorted order.
// - Equality and ordering consider the hash only.
//
// Usage:
//
//	r := resource.New([]string{"go", "notes"}, "channels are typed pipes")
//	_ = r.Hash()
//	r.RemoveTag("notes")
package resource
