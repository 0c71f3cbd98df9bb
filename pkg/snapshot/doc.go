// Package snapshot persists resources as one file per resource and loads them back.
//
// Invariants:
// - A snapshot file is named after the hash it holds and the hash matches its content.
// - A resource without tags has no snapshot file.
// - Every decoded document is validated against the reflected Snapshot schema.
// - Writes are atomic: a reader never observes a partially written file.
//
// Usage:
//
//	fs, _ := snapshot.NewFileSync(snapshot.Config{Dir: "/home/me/.scribe/resources"})
//	resources, _ := fs.LoadAll(ctx)
//	_ = fs.Persist(ctx, resources[0])
package snapshot
