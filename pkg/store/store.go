package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/harun/scribe/internal/metrics"
	"github.com/harun/scribe/internal/tracing"
	"github.com/harun/scribe/pkg/resource"
)

const tracerName = "scribe/store"

// Syncer persists resources. Persist must delete the file of a resource without tags,
// and Delete must treat an absent file as success.
type Syncer interface {
	LoadAll(ctx context.Context) ([]*resource.Resource, error)
	Persist(ctx context.Context, r *resource.Resource) error
	Delete(ctx context.Context, hash string) error
}

// Auditor is implemented by syncers that can compare their storage with the store's contents
type Auditor interface {
	Audit(ctx context.Context, resources []*resource.Resource) error
}

// Config holds the collaborators of a Store
type Config struct {
	// Syncer is optional; a nil Syncer keeps the store in memory only
	Syncer  Syncer
	Logger  zerolog.Logger
	Metrics *metrics.Metrics
}

// Store owns the resource table and both indices
type Store struct {
	mu      sync.RWMutex
	t       *tables
	syncer  Syncer
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

// New creates an empty store. Call Initialize to load persisted resources.
func New(cfg Config) *Store {
	return &Store{
		t:       newTables(),
		syncer:  cfg.Syncer,
		logger:  cfg.Logger.With().Str("component", "store").Logger(),
		metrics: cfg.Metrics,
	}
}

// begin starts a span for op and returns a func that ends it and records the operation
func (s *Store) begin(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := tracing.StartSpan(ctx, tracerName, "store."+op, attrs...)
	return ctx, func(err error) {
		tracing.EndSpan(span, err)
		s.metrics.RecordOperation(op, time.Since(start), err)
	}
}

// updateGauges must be called with the write lock held
func (s *Store) updateGauges() {
	s.metrics.SetStoreSize(len(s.t.resources), s.t.untagged(), len(s.t.tags), len(s.t.words))
}

// Initialize loads every persisted resource without writing it back.
// Loaded resources without tags have their files deleted.
func (s *Store) Initialize(ctx context.Context) (err error) {
	ctx, done := s.begin(ctx, "initialize")
	defer func() { done(err) }()

	if s.syncer == nil {
		return nil
	}

	loaded, err := s.syncer.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load resources: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range loaded {
		s.t.insert(r.Clone())
	}
	err = s.deleteTaglessLocked(ctx, loaded)
	s.updateGauges()

	tracing.LoggerFromContext(ctx, s.logger).Info().
		Int("count", len(loaded)).
		Int("tags", len(s.t.tags)).
		Int("tokens", len(s.t.words)).
		Msg("Store initialized")

	return err
}

// Reload replaces the store's contents with what the syncer currently holds.
// Nothing changes when loading fails.
func (s *Store) Reload(ctx context.Context) (err error) {
	ctx, done := s.begin(ctx, "reload")
	defer func() { done(err) }()

	if s.syncer == nil {
		return nil
	}

	loaded, err := s.syncer.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to reload resources: %w", err)
	}

	fresh := newTables()
	for _, r := range loaded {
		fresh.insert(r.Clone())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.t = fresh
	err = s.deleteTaglessLocked(ctx, loaded)
	s.updateGauges()

	tracing.LoggerFromContext(ctx, s.logger).Info().
		Int("count", len(loaded)).
		Msg("Store reloaded")

	return err
}

func (s *Store) deleteTaglessLocked(ctx context.Context, loaded []*resource.Resource) error {
	var errs []error
	for _, r := range loaded {
		if r.TagCount() > 0 {
			continue
		}
		if err := s.syncer.Delete(ctx, r.Hash()); err != nil {
			errs = append(errs, err)
			continue
		}
		s.logger.Debug().Str("hash", r.Hash()).Msg("Deleted snapshot of untagged resource")
	}
	if len(errs) > 0 {
		return fmt.Errorf("failed to delete untagged snapshots: %w", errors.Join(errs...))
	}
	return nil
}

// AddResource stores a copy of r, replacing any resource with the same hash.
// When persist is set the resource's snapshot is written, or deleted if it has no tags.
func (s *Store) AddResource(ctx context.Context, r *resource.Resource, persist bool) (err error) {
	ctx, done := s.begin(ctx, "add", attribute.String("hash", r.Hash()))
	defer func() { done(err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	owned := r.Clone()
	if s.t.insert(owned) {
		s.logger.Debug().Str("hash", owned.Hash()).Msg("Replaced existing resource")
	}
	s.updateGauges()

	if persist && s.syncer != nil {
		if err := s.syncer.Persist(ctx, owned.Clone()); err != nil {
			return fmt.Errorf("failed to persist resource %s: %w", owned.Hash(), err)
		}
	}

	tracing.LoggerFromContext(ctx, s.logger).Debug().
		Str("hash", owned.Hash()).
		Strs("tags", owned.Tags()).
		Msg("Resource added")

	return nil
}

// RemoveTag strips tag from every resource carrying it and resyncs all resources.
// An unknown tag reports false and changes nothing.
func (s *Store) RemoveTag(ctx context.Context, tag string) (_ bool, err error) {
	ctx, done := s.begin(ctx, "remove_tag", attribute.String("tag", tag))
	defer func() { done(err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	hashes, ok := s.t.tags[tag]
	if !ok {
		return false, nil
	}
	for hash := range hashes {
		s.t.resources[hash].RemoveTag(tag)
	}
	delete(s.t.tags, tag)
	s.reindexLocked()
	s.updateGauges()

	tracing.LoggerFromContext(ctx, s.logger).Info().
		Str("tag", tag).
		Int("count", len(hashes)).
		Msg("Tag removed")

	return true, s.syncAllLocked(ctx)
}

// RemoveResource drops the resource stored under hash, deletes its snapshot and resyncs the rest.
// An unknown hash reports false and changes nothing.
func (s *Store) RemoveResource(ctx context.Context, hash string) (_ bool, err error) {
	ctx, done := s.begin(ctx, "remove_resource", attribute.String("hash", hash))
	defer func() { done(err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.t.detach(hash) == nil {
		return false, nil
	}
	s.reindexLocked()
	s.updateGauges()

	tracing.LoggerFromContext(ctx, s.logger).Info().
		Str("hash", hash).
		Msg("Resource removed")

	var errs []error
	if s.syncer != nil {
		if err := s.syncer.Delete(ctx, hash); err != nil {
			errs = append(errs, fmt.Errorf("failed to delete resource %s: %w", hash, err))
		}
	}
	if err := s.syncAllLocked(ctx); err != nil {
		errs = append(errs, err)
	}
	return true, errors.Join(errs...)
}

// Sweep removes every resource without tags and returns how many were removed
func (s *Store) Sweep(ctx context.Context) (_ int, err error) {
	ctx, done := s.begin(ctx, "sweep")
	defer func() { done(err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	var swept []string
	for _, hash := range s.t.sortedHashes() {
		if s.t.resources[hash].TagCount() == 0 {
			s.t.detach(hash)
			swept = append(swept, hash)
		}
	}
	if len(swept) == 0 {
		return 0, nil
	}
	s.reindexLocked()
	s.updateGauges()

	var errs []error
	if s.syncer != nil {
		for _, hash := range swept {
			if err := s.syncer.Delete(ctx, hash); err != nil {
				errs = append(errs, err)
			}
		}
	}

	tracing.LoggerFromContext(ctx, s.logger).Info().
		Int("count", len(swept)).
		Msg("Swept untagged resources")

	if len(errs) > 0 {
		return len(swept), fmt.Errorf("failed to delete swept snapshots: %w", errors.Join(errs...))
	}
	return len(swept), nil
}

// Sync writes every resource through the syncer
func (s *Store) Sync(ctx context.Context) (err error) {
	ctx, done := s.begin(ctx, "sync")
	defer func() { done(err) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.syncAllLocked(ctx)
}

// syncAllLocked persists every resource in hash order, collecting every failure
func (s *Store) syncAllLocked(ctx context.Context) error {
	if s.syncer == nil {
		return nil
	}

	var errs []error
	for _, hash := range s.t.sortedHashes() {
		if err := s.syncer.Persist(ctx, s.t.resources[hash].Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("failed to sync resources: %w", errors.Join(errs...))
	}
	return nil
}

// Reindex rebuilds the word index from the stored content
func (s *Store) Reindex() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reindexLocked()
	s.updateGauges()
}

func (s *Store) reindexLocked() {
	s.t.reindex()
	s.metrics.RecordReindex()
}

// Get returns a copy of the resource stored under hash
func (s *Store) Get(hash string) (*resource.Resource, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.t.resources[hash]
	if !ok {
		return nil, false
	}
	return r.Clone(), true
}

// Resources returns copies of the resources stored under hashes, in the given order.
// Unknown hashes are skipped.
func (s *Store) Resources(hashes []string) []*resource.Resource {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*resource.Resource, 0, len(hashes))
	for _, hash := range hashes {
		if r, ok := s.t.resources[hash]; ok {
			out = append(out, r.Clone())
		}
	}
	return out
}

// Hashes returns every stored hash in sorted order
func (s *Store) Hashes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.t.sortedHashes()
}
