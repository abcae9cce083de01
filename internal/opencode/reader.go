package opencode

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/samber/lo"
)

// ErrNoData is returned when the storage tree holds no parseable usage.
var ErrNoData = errors.New("opencode: no usage data found")

// DefaultCacheTTL bounds how often a full rescan may hit the filesystem.
const DefaultCacheTTL = 5 * time.Minute

type cachedFile struct {
	part     *UsagePart
	modified time.Time
}

type cachedData struct {
	metrics  Metrics
	cachedAt time.Time
	// files maps path to the parsed part, keyed for mtime-based reuse
	// on the next refresh. Irrelevant files are cached with a nil part
	// so they are not re-read every cycle.
	files map[string]cachedFile
}

// Reader composes Scanner, parser and Aggregator and memoizes the
// result so UI-tick callers do not rescan tens of thousands of files
// every few seconds. Safe for concurrent use.
type Reader struct {
	scanner *Scanner
	ttl     time.Duration
	now     func() time.Time

	mu    sync.Mutex
	cache *cachedData
}

// NewReader creates a reader over the given scanner with the default
// cache TTL.
func NewReader(scanner *Scanner) *Reader {
	return NewReaderTTL(scanner, DefaultCacheTTL)
}

// NewReaderTTL creates a reader with an explicit cache TTL. A
// non-positive TTL disables caching.
func NewReaderTTL(scanner *Scanner, ttl time.Duration) *Reader {
	return &Reader{scanner: scanner, ttl: ttl, now: time.Now}
}

func (r *Reader) StorageRoot() string { return r.scanner.Root() }

// Usage returns aggregated lifetime metrics. Within the TTL window the
// cached value is returned untouched; after that the metrics are
// recomputed from scratch over the current on-disk file set, reusing
// parsed parts for files whose mtime is unchanged. Per-file parse
// failures are logged and skipped; only a failing scan of the root is
// fatal.
func (r *Reader) Usage() (Metrics, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if r.cache != nil && r.ttl > 0 && now.Sub(r.cache.cachedAt) < r.ttl {
		return r.cache.metrics, nil
	}

	files, err := r.scanner.ScanWithMetadata()
	if err != nil {
		return Metrics{}, err
	}
	if len(files) == 0 {
		return Metrics{}, ErrNoData
	}

	parts, fileCache := r.parseFiles(files)
	if len(parts) == 0 {
		return Metrics{}, ErrNoData
	}

	metrics := aggregate(parts, now)
	r.cache = &cachedData{metrics: metrics, cachedAt: now, files: fileCache}
	return metrics, nil
}

// UsageToday aggregates only files modified since local midnight. The
// result is not cached; windowed views are on-demand.
func (r *Reader) UsageToday() (Metrics, error) {
	now := r.now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return r.usageSince(midnight, now)
}

// UsageMonth aggregates only files modified since the first of the
// current month.
func (r *Reader) UsageMonth() (Metrics, error) {
	now := r.now()
	return r.usageSince(monthStart(now), now)
}

// UsageLastMonth aggregates files modified during the previous calendar
// month.
func (r *Reader) UsageLastMonth() (Metrics, error) {
	now := r.now()
	thisMonth := monthStart(now)
	lastMonth := monthStart(thisMonth.AddDate(0, 0, -1))

	r.mu.Lock()
	defer r.mu.Unlock()

	files, err := r.scanner.ScanModifiedSince(lastMonth)
	if err != nil {
		return Metrics{}, err
	}
	files = lo.Filter(files, func(f FileInfo, _ int) bool {
		return f.Modified.Before(thisMonth)
	})
	if len(files) == 0 {
		return Metrics{}, ErrNoData
	}

	parts, _ := r.parseFiles(files)
	if len(parts) == 0 {
		return Metrics{}, ErrNoData
	}
	return aggregate(parts, now), nil
}

func (r *Reader) usageSince(cutoff, now time.Time) (Metrics, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	files, err := r.scanner.ScanModifiedSince(cutoff)
	if err != nil {
		return Metrics{}, err
	}
	if len(files) == 0 {
		return Metrics{}, ErrNoData
	}

	parts, _ := r.parseFiles(files)
	if len(parts) == 0 {
		return Metrics{}, ErrNoData
	}
	return aggregate(parts, now), nil
}

// parseFiles parses the given files, reusing cached parts for paths
// whose mtime has not changed. Callers must hold r.mu.
func (r *Reader) parseFiles(files []FileInfo) ([]*UsagePart, map[string]cachedFile) {
	parts := make([]*UsagePart, 0, len(files))
	next := make(map[string]cachedFile, len(files))

	for _, f := range files {
		if r.cache != nil {
			if cached, ok := r.cache.files[f.Path]; ok && cached.modified.Equal(f.Modified) {
				if cached.part != nil {
					parts = append(parts, cached.part)
				}
				next[f.Path] = cached
				continue
			}
		}

		part, err := ParseFile(f.Path)
		if err != nil {
			log.Printf("opencode: skipping %s: %v", f.Path, err)
			continue
		}
		// part may be nil here: valid JSON without token data. Cache
		// the verdict so the file is not re-read next cycle.
		next[f.Path] = cachedFile{part: part, modified: f.Modified}
		if part != nil {
			parts = append(parts, part)
		}
	}

	return parts, next
}

func aggregate(parts []*UsagePart, now time.Time) Metrics {
	var agg Aggregator
	for _, part := range parts {
		agg.Add(part)
	}
	return agg.Finalize(now)
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
