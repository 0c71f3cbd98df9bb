package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/go-cmp/cmp"

	"github.com/harun/scribe/pkg/resource"
)

// Stats summarizes the store's contents
type Stats struct {
	Resources int `json:"resources"`
	Untagged  int `json:"untagged"`
	Tags      int `json:"tags"`
	Tokens    int `json:"tokens"`
}

// Stats returns current counts
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Stats{
		Resources: len(s.t.resources),
		Untagged:  s.t.untagged(),
		Tags:      len(s.t.tags),
		Tokens:    len(s.t.words),
	}
}

// VerifyError lists every consistency violation found by Verify
type VerifyError struct {
	Violations []string
	// Audit is the syncer's audit failure, if any
	Audit error
}

func (e *VerifyError) Error() string {
	parts := append([]string(nil), e.Violations...)
	if e.Audit != nil {
		parts = append(parts, e.Audit.Error())
	}
	return fmt.Sprintf("store verification failed: %s", strings.Join(parts, "; "))
}

func (e *VerifyError) Unwrap() error {
	return e.Audit
}

// Verify checks that the three structures agree with each other.
// When the syncer is an Auditor its storage is checked against the resource table too.
func (s *Store) Verify(ctx context.Context) (err error) {
	ctx, done := s.begin(ctx, "verify")
	defer func() { done(err) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	report := &VerifyError{Violations: s.t.violations()}

	if auditor, ok := s.syncer.(Auditor); ok {
		resources := make([]*resource.Resource, 0, len(s.t.resources))
		for _, hash := range s.t.sortedHashes() {
			resources = append(resources, s.t.resources[hash].Clone())
		}
		report.Audit = auditor.Audit(ctx, resources)
	}

	if len(report.Violations) == 0 && report.Audit == nil {
		return nil
	}
	return report
}

// violations lists every broken invariant of the in-memory structures
func (t *tables) violations() []string {
	var out []string

	for _, hash := range t.sortedHashes() {
		r := t.resources[hash]
		if r.Hash() != hash {
			out = append(out, fmt.Sprintf("resource %s stored under %s", r.Hash(), hash))
		}
		for _, tag := range r.Tags() {
			if _, ok := t.tags[tag][hash]; !ok {
				out = append(out, fmt.Sprintf("tag %q of %s missing from tag index", tag, hash))
			}
		}
	}

	for _, tag := range t.tags.keys() {
		set := t.tags[tag]
		if len(set) == 0 {
			out = append(out, fmt.Sprintf("tag %q has an empty hash set", tag))
		}
		for _, hash := range sortedKeys(set) {
			r, ok := t.resources[hash]
			switch {
			case !ok:
				out = append(out, fmt.Sprintf("tag %q lists unknown resource %s", tag, hash))
			case !r.HasTag(tag):
				out = append(out, fmt.Sprintf("tag %q lists %s which does not carry it", tag, hash))
			}
		}
	}

	if diff := cmp.Diff(buildWordIndex(t.resources).export(), t.words.export()); diff != "" {
		out = append(out, "word index out of date (-want +got):\n"+diff)
	}

	return out
}
