// Package store keeps resources, the tag index and the word index consistent.
//
// Invariants:
// - Every resource is stored under its own hash.
// - The tag index and resource tags agree in both directions, and no tag maps to an empty set.
// - The word index holds exactly the tokens of the content currently stored.
// - A resource without tags has no snapshot file once its mutation has been synced.
//
// Resources are cloned on the way in and on the way out; callers never hold a
// reference into the store. One RWMutex serializes every operation.
//
// Usage:
//
//	fs, _ := snapshot.NewFileSync(snapshot.Config{Dir: dir})
//	s := store.New(store.Config{Syncer: fs, Logger: logger})
//	_ = s.Initialize(ctx)
//	_ = s.AddResource(ctx, resource.New([]string{"go"}, "channels are typed pipes"), true)
//	hashes := s.Search([]string{"channels", "pipes"})
//	_ = hashes
package store
