package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/harun/scribe/internal/metrics"
	"github.com/harun/scribe/internal/tracing"
	"github.com/harun/scribe/pkg/resource"
)

const tracerName = "scribe/snapshot"

// Config holds configuration for a FileSync
type Config struct {
	Dir         string
	Format      Format
	Concurrency int
	Logger      zerolog.Logger
	Metrics     *metrics.Metrics
}

// FileSync stores each resource as a snapshot file under one directory tree
type FileSync struct {
	dir         string
	format      Format
	concurrency int
	logger      zerolog.Logger
	metrics     *metrics.Metrics

	mu    sync.Mutex
	paths map[string]string // hash -> path the snapshot was loaded from or last written to
}

// NewFileSync creates the snapshot directory if needed and returns a FileSync over it
func NewFileSync(cfg Config) (*FileSync, error) {
	if cfg.Dir == "" {
		return nil, errors.New("snapshot directory is required")
	}
	if cfg.Format == "" {
		cfg.Format = FormatJSON
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = runtime.GOMAXPROCS(0)
	}

	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	return &FileSync{
		dir:         cfg.Dir,
		format:      cfg.Format,
		concurrency: cfg.Concurrency,
		logger:      cfg.Logger.With().Str("component", "snapshot").Logger(),
		metrics:     cfg.Metrics,
		paths:       make(map[string]string),
	}, nil
}

// Dir returns the snapshot directory
func (f *FileSync) Dir() string {
	return f.dir
}

// Format returns the format new snapshots are written in
func (f *FileSync) Format() Format {
	return f.format
}

// LoadAll decodes every snapshot file under the directory.
// Results follow the lexical walk order; any failure aborts the whole load.
func (f *FileSync) LoadAll(ctx context.Context) (_ []*resource.Resource, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "snapshot.LoadAll", attribute.String("dir", f.dir))
	defer func() { tracing.EndSpan(span, err) }()

	paths, err := f.scan()
	if err != nil {
		return nil, err
	}

	results := make([]*resource.Resource, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := readFile(path)
			if err != nil {
				return fmt.Errorf("failed to load snapshot %s: %w", path, err)
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		f.metrics.RecordSnapshotLoadError()
		return nil, err
	}

	f.mu.Lock()
	f.paths = make(map[string]string, len(results))
	for i, r := range results {
		if prev, ok := f.paths[r.Hash()]; ok {
			f.logger.Warn().
				Str("hash", r.Hash()).
				Str("path", paths[i]).
				Str("previous", prev).
				Msg("Duplicate snapshot, later file wins")
		}
		f.paths[r.Hash()] = paths[i]
	}
	f.mu.Unlock()

	tracing.LoggerFromContext(ctx, f.logger).Debug().
		Int("count", len(results)).
		Str("dir", f.dir).
		Msg("Snapshots loaded")

	return results, nil
}

// scan lists snapshot files under the directory in lexical order
func (f *FileSync) scan() ([]string, error) {
	var paths []string
	err := filepath.WalkDir(f.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if _, ok := FormatFromPath(path); !ok {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk snapshot directory: %w", err)
	}
	return paths, nil
}

// readFile decodes one snapshot file and checks its hash against the file name and content
func readFile(path string) (*resource.Resource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	format, _ := FormatFromPath(path)
	s, err := Decode(data, format)
	if err != nil {
		return nil, err
	}

	if stem := stemOf(path); s.Hash != stem {
		return nil, fmt.Errorf("%w: file is named %s but holds %s", ErrHashMismatch, stem, s.Hash)
	}
	return s.Resource()
}

func stemOf(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Persist writes r's snapshot, or deletes it when r has no tags
func (f *FileSync) Persist(ctx context.Context, r *resource.Resource) (err error) {
	if r.TagCount() == 0 {
		return f.Delete(ctx, r.Hash())
	}

	_, span := tracing.StartSpan(ctx, tracerName, "snapshot.Persist", attribute.String("hash", r.Hash()))
	defer func() { tracing.EndSpan(span, err) }()

	f.mu.Lock()
	defer f.mu.Unlock()

	path, ok := f.paths[r.Hash()]
	if !ok {
		path = f.canonicalPath(r.Hash())
	}
	format, _ := FormatFromPath(path)

	data, err := Encode(FromResource(r), format)
	if err != nil {
		f.metrics.RecordSnapshotWrite(err)
		return err
	}
	if err := writeAtomic(path, data); err != nil {
		f.metrics.RecordSnapshotWrite(err)
		return fmt.Errorf("failed to write snapshot %s: %w", path, err)
	}
	f.metrics.RecordSnapshotWrite(nil)
	f.paths[r.Hash()] = path

	f.logger.Debug().
		Str("hash", r.Hash()).
		Str("path", path).
		Msg("Snapshot written")

	return nil
}

// Delete removes every snapshot file known for hash. A file that is already gone is not an error.
func (f *FileSync) Delete(ctx context.Context, hash string) (err error) {
	_, span := tracing.StartSpan(ctx, tracerName, "snapshot.Delete", attribute.String("hash", hash))
	defer func() { tracing.EndSpan(span, err) }()

	f.mu.Lock()
	defer f.mu.Unlock()

	targets := []string{f.canonicalPath(hash)}
	if path, ok := f.paths[hash]; ok && path != targets[0] {
		targets = append(targets, path)
	}

	var errs []error
	for _, path := range targets {
		rmErr := os.Remove(path)
		switch {
		case rmErr == nil:
			f.metrics.RecordSnapshotDelete(nil)
			f.logger.Debug().
				Str("hash", hash).
				Str("path", path).
				Msg("Snapshot deleted")
		case errors.Is(rmErr, fs.ErrNotExist):
		default:
			f.metrics.RecordSnapshotDelete(rmErr)
			errs = append(errs, fmt.Errorf("failed to delete snapshot %s: %w", path, rmErr))
		}
	}
	if len(errs) == 0 {
		delete(f.paths, hash)
	}
	return errors.Join(errs...)
}

func (f *FileSync) canonicalPath(hash string) string {
	return filepath.Join(f.dir, hash+f.format.Ext())
}

// writeAtomic writes data to a temp file in the target directory and renames it into place
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// files maps each hash found on disk to its snapshot paths, judged by file name only
func (f *FileSync) files() (map[string][]string, error) {
	paths, err := f.scan()
	if err != nil {
		return nil, err
	}
	out := make(map[string][]string, len(paths))
	for _, path := range paths {
		stem := stemOf(path)
		out[stem] = append(out[stem], path)
	}
	return out, nil
}

// AuditError lists disagreements between the store and the snapshot directory
type AuditError struct {
	// Missing holds hashes of tagged resources without a snapshot file
	Missing []string
	// Stale holds paths of snapshot files kept for resources that have no tags
	Stale []string
	// Orphans holds paths of snapshot files whose hash the store does not hold
	Orphans []string
}

func (e *AuditError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("%d missing (%s)", len(e.Missing), strings.Join(e.Missing, ", ")))
	}
	if len(e.Stale) > 0 {
		parts = append(parts, fmt.Sprintf("%d stale (%s)", len(e.Stale), strings.Join(e.Stale, ", ")))
	}
	if len(e.Orphans) > 0 {
		parts = append(parts, fmt.Sprintf("%d orphaned (%s)", len(e.Orphans), strings.Join(e.Orphans, ", ")))
	}
	return "snapshot audit failed: " + strings.Join(parts, "; ")
}

func (e *AuditError) empty() bool {
	return len(e.Missing) == 0 && len(e.Stale) == 0 && len(e.Orphans) == 0
}

// Audit compares resources with the files on disk.
// It returns an *AuditError when they disagree.
func (f *FileSync) Audit(ctx context.Context, resources []*resource.Resource) (err error) {
	_, span := tracing.StartSpan(ctx, tracerName, "snapshot.Audit", attribute.Int("resources", len(resources)))
	defer func() { tracing.EndSpan(span, err) }()

	onDisk, err := f.files()
	if err != nil {
		return err
	}

	report := &AuditError{}
	known := make(map[string]struct{}, len(resources))
	for _, r := range resources {
		known[r.Hash()] = struct{}{}
		paths := onDisk[r.Hash()]
		switch {
		case r.TagCount() > 0 && len(paths) == 0:
			report.Missing = append(report.Missing, r.Hash())
		case r.TagCount() == 0 && len(paths) > 0:
			report.Stale = append(report.Stale, paths...)
		}
	}
	for hash, paths := range onDisk {
		if _, ok := known[hash]; !ok {
			report.Orphans = append(report.Orphans, paths...)
		}
	}

	if report.empty() {
		return nil
	}
	sort.Strings(report.Missing)
	sort.Strings(report.Stale)
	sort.Strings(report.Orphans)
	return report
}
