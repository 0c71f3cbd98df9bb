package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/harun/scribe/internal/observability"
	"github.com/harun/scribe/pkg/resource"
	"github.com/harun/scribe/pkg/snapshot"
	"github.com/harun/scribe/pkg/store"
	"github.com/harun/scribe/pkg/tokenize"
)

// minHashPrefix is the shortest hash prefix accepted by show and drop
const minHashPrefix = 4

var (
	errHashPrefixTooShort = fmt.Errorf("hash prefix must be at least %d characters", minHashPrefix)
	errAmbiguousHash      = errors.New("hash prefix matches more than one resource")
)

// session runs store actions and prints their results.
// Commands and the interactive shell share it.
type session struct {
	app *App
	out *printer
}

func newSession(app *App, out *printer) *session {
	return &session{app: app, out: out}
}

// lookupTags runs one lookup per distinct tag, in sorted order
func (s *session) lookupTags(tags []string) {
	for _, tag := range distinctSorted(tags) {
		hashes := s.app.Store.LookupTag(tag)
		if len(hashes) == 0 {
			s.out.miss()
			continue
		}
		s.printContents(hashes)
	}
}

// index prints the hashes whose content yields token
func (s *session) index(token string) {
	hashes := s.app.Store.LookupToken(tokenize.Lower(token))
	if len(hashes) == 0 {
		s.out.miss()
		return
	}
	s.out.separator()
	for _, hash := range hashes {
		s.out.println(hash)
	}
	s.out.separator()
}

// search prints the contents of every resource matching all known terms.
// Each term is lowercased and otherwise matched as an exact word index key.
func (s *session) search(terms []string) {
	keys := make([]string, 0, len(terms))
	for _, term := range terms {
		keys = append(keys, tokenize.Lower(term))
	}
	hashes := s.app.Store.Search(keys)
	if len(hashes) == 0 {
		s.out.miss()
		return
	}
	s.printContents(hashes)
}

func (s *session) printContents(hashes []string) {
	s.out.separator()
	for _, r := range s.app.Store.Resources(hashes) {
		s.out.println(r.Content())
		s.out.separator()
	}
}

// add stores and persists a new resource, returning it
func (s *session) add(ctx context.Context, tags []string, content string) (*resource.Resource, error) {
	if strings.TrimSpace(content) == "" {
		return nil, errors.New("content is empty")
	}
	r := resource.New(tags, content)
	if r.TagCount() == 0 {
		s.app.Logger.Warn().Str("hash", r.Hash()).Msg("Resource has no tags and will not be saved")
	}
	err := s.app.Store.AddResource(ctx, r, true)
	s.app.Audit.Record(ctx, observability.AuditEvent{
		Action: "add",
		Status: observability.StatusOf(true, err),
		Hash:   r.Hash(),
		Tags:   r.Tags(),
		Error:  observability.ErrorString(err),
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// list prints every tag, or only those matching a glob pattern
func (s *session) list(pattern string) error {
	var tags []string
	if pattern == "" {
		tags = s.app.Store.Tags()
	} else {
		var err error
		if tags, err = s.app.Store.MatchTags(pattern); err != nil {
			return err
		}
	}
	if len(tags) == 0 {
		s.out.miss()
		return nil
	}
	for _, tag := range tags {
		s.out.println(tag)
	}
	return nil
}

// removeTag strips tag from every resource
func (s *session) removeTag(ctx context.Context, tag string) error {
	removed, err := s.app.Store.RemoveTag(ctx, tag)
	s.app.Audit.Record(ctx, observability.AuditEvent{
		Action: "remove_tag",
		Status: observability.StatusOf(removed, err),
		Tag:    tag,
		Error:  observability.ErrorString(err),
	})
	if err != nil {
		return err
	}
	if !removed {
		s.out.miss()
		return nil
	}
	s.out.printf("removed tag %s\n", tag)
	return nil
}

// drop removes the resource identified by a hash or unique hash prefix
func (s *session) drop(ctx context.Context, prefix string) error {
	hash, err := s.resolveHash(prefix)
	if err != nil {
		return err
	}
	if hash == "" {
		s.out.miss()
		return nil
	}
	removed, err := s.app.Store.RemoveResource(ctx, hash)
	s.app.Audit.Record(ctx, observability.AuditEvent{
		Action: "remove_resource",
		Status: observability.StatusOf(removed, err),
		Hash:   hash,
		Error:  observability.ErrorString(err),
	})
	if err != nil {
		return err
	}
	if !removed {
		s.out.miss()
		return nil
	}
	s.out.printf("dropped %s\n", hash)
	return nil
}

// show prints one resource with its hash and tags
func (s *session) show(prefix string) error {
	hash, err := s.resolveHash(prefix)
	if err != nil {
		return err
	}
	r, ok := s.app.Store.Get(hash)
	if hash == "" || !ok {
		s.out.miss()
		return nil
	}
	s.out.separator()
	s.out.printf("hash: %s\n", r.Hash())
	s.out.printf("tags: %s\n", strings.Join(r.Tags(), " "))
	s.out.separator()
	s.out.println(r.Content())
	s.out.separator()
	return nil
}

// sweep drops every untagged resource
func (s *session) sweep(ctx context.Context) error {
	n, err := s.app.Store.Sweep(ctx)
	s.app.Audit.Record(ctx, observability.AuditEvent{
		Action: "sweep",
		Status: observability.StatusOf(n > 0, err),
		Count:  n,
		Error:  observability.ErrorString(err),
	})
	if err != nil {
		return err
	}
	s.out.printf("swept %d untagged resources\n", n)
	return nil
}

// verify checks the store and prints each violation found
func (s *session) verify(ctx context.Context) error {
	err := s.app.Store.Verify(ctx)
	if err == nil {
		s.out.println("ok")
		return nil
	}

	var verr *store.VerifyError
	if !errors.As(err, &verr) {
		return err
	}
	for _, v := range verr.Violations {
		s.out.println(v)
	}
	var audit *snapshot.AuditError
	if errors.As(verr.Audit, &audit) {
		for _, hash := range audit.Missing {
			s.out.printf("missing snapshot: %s\n", hash)
		}
		for _, path := range audit.Stale {
			s.out.printf("stale file: %s\n", path)
		}
		for _, path := range audit.Orphans {
			s.out.printf("orphan file: %s\n", path)
		}
	} else if verr.Audit != nil {
		s.out.println(verr.Audit.Error())
	}
	return WrapExitError(ExitFailure, "verification failed", err)
}

// stats prints store counts followed by the metrics summary
func (s *session) stats() error {
	st := s.app.Store.Stats()
	s.out.printf("resources: %d\n", st.Resources)
	s.out.printf("untagged:  %d\n", st.Untagged)
	s.out.printf("tags:      %d\n", st.Tags)
	s.out.printf("tokens:    %d\n", st.Tokens)
	s.out.separator()
	return s.app.Metrics.WriteSummary(s.out.w)
}

// resolveHash expands a unique hash prefix. It returns "" when nothing matches.
func (s *session) resolveHash(prefix string) (string, error) {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if len(prefix) < minHashPrefix {
		return "", errHashPrefixTooShort
	}
	if resource.IsHash(prefix) {
		return prefix, nil
	}

	var match string
	for _, hash := range s.app.Store.Hashes() {
		if !strings.HasPrefix(hash, prefix) {
			continue
		}
		if match != "" {
			return "", fmt.Errorf("%w: %s", errAmbiguousHash, prefix)
		}
		match = hash
	}
	return match, nil
}

func distinctSorted(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	var out []string
	for _, item := range items {
		if item == "" {
			continue
		}
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	sort.Strings(out)
	return out
}
