package momentgarden

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/time/rate"

	"goodmorning/internal/fileutil"
	"goodmorning/internal/logging"
)

// ErrDownloadErrors is returned when some media could not be fetched.
var ErrDownloadErrors = errors.New("media downloads failed")

// emptyPagesBeforeStop is how many consecutive pages without new items end
// an incremental metadata sync.
const emptyPagesBeforeStop = 2

// Source is the subset of Client used by a Syncer.
type Source interface {
	Moments(ctx context.Context, gardenID string, page, perPage int) ([]json.RawMessage, error)
	Comments(ctx context.Context, momentID string) (json.RawMessage, error)
	Download(ctx context.Context, rawURL, dest string) (int64, error)
}

// Options tunes a Syncer.
type Options struct {
	PerPage int
	// Full pages through the whole garden instead of stopping once pages
	// stop producing new items.
	Full bool
	// Limit caps downloaded files per garden. Zero means no cap.
	Limit            int
	RequestInterval  time.Duration
	DownloadInterval time.Duration
	// SkipMetadata downloads media for what is already cached without
	// contacting the listing endpoint.
	SkipMetadata bool
	// Session, when set, supplies the source for each garden.
	Session func(Garden) Source
}

// Syncer mirrors gardens into a directory.
type Syncer struct {
	source  Source
	opts    Options
	logger  *slog.Logger
	out     io.Writer
	waiter  Waiter
	request *rate.Limiter
	fetch   *rate.Limiter
}

// NewSyncer builds a Syncer. A nil waiter waits silently.
func NewSyncer(source Source, opts Options, logger *slog.Logger, out io.Writer, waiter Waiter) *Syncer {
	if opts.PerPage <= 0 {
		opts.PerPage = 50
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if out == nil {
		out = io.Discard
	}
	if waiter == nil {
		waiter = SilentWaiter{}
	}
	return &Syncer{
		source:  source,
		opts:    opts,
		logger:  logger,
		out:     out,
		waiter:  waiter,
		request: newLimiter(opts.RequestInterval),
		fetch:   newLimiter(opts.DownloadInterval),
	}
}

func newLimiter(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(interval), 1)
}

// MetadataStats summarizes a metadata sync.
type MetadataStats struct {
	Pages    int `json:"pages"`
	New      int `json:"new"`
	Comments int `json:"comments"`
}

// DownloadStats summarizes a media pass.
type DownloadStats struct {
	Checked    int      `json:"checked"`
	Downloaded int      `json:"downloaded"`
	Skipped    int      `json:"skipped"`
	Bytes      int64    `json:"bytes"`
	Errors     []string `json:"errors,omitempty"`
	LimitHit   bool     `json:"limit_hit"`
}

// GardenReport is the outcome for one garden.
type GardenReport struct {
	Garden    string        `json:"garden"`
	Metadata  MetadataStats `json:"metadata"`
	Downloads DownloadStats `json:"downloads"`
	Err       string        `json:"error,omitempty"`
}

// SyncMetadata caches new moments of a garden, newest first. Comment
// threads are fetched for listed moments that have comments not cached yet.
func (s *Syncer) SyncMetadata(ctx context.Context, garden Garden, cache Cache) (MetadataStats, error) {
	var stats MetadataStats
	pagesWithoutNew := 0
	for page := 1; ; page++ {
		if err := s.pace(ctx, s.request, "wait: between API requests"); err != nil {
			return stats, err
		}
		items, err := s.source.Moments(ctx, garden.GardenID, page, s.opts.PerPage)
		if err != nil {
			return stats, fmt.Errorf("page %d: %w", page, err)
		}
		stats.Pages++
		if len(items) == 0 {
			break
		}

		moments, added, err := cache.StoreMoments(items)
		stats.New += added
		if err != nil {
			return stats, err
		}
		s.logger.Debug("moments page cached",
			logging.String(logging.FieldGarden, garden.Name),
			logging.Int("page", page),
			logging.Int("items", len(items)),
			logging.Int("new", added),
		)

		for _, m := range moments {
			if !cache.NeedsComments(m) {
				continue
			}
			if err := s.pace(ctx, s.request, "wait: between API requests"); err != nil {
				return stats, err
			}
			thread, err := s.source.Comments(ctx, string(m.ID))
			if err != nil {
				logging.WarnWithContext(s.logger, "comment fetch failed", "moment_garden_comments",
					logging.String(logging.FieldMomentID, string(m.ID)),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "comments are retried on the next run"),
					logging.String(logging.FieldImpact, "comment thread missing from cache"),
				)
				continue
			}
			if err := cache.StoreComments(string(m.ID), thread); err != nil {
				return stats, err
			}
			stats.Comments++
		}

		if added == 0 {
			pagesWithoutNew++
		} else {
			pagesWithoutNew = 0
		}
		if !s.opts.Full && pagesWithoutNew >= emptyPagesBeforeStop {
			break
		}
	}
	fmt.Fprintf(s.out, "Found %d new item(s)\n", stats.New)
	return stats, nil
}

// DownloadMedia fetches missing media for every cached moment. Failures of
// single items are counted and the pass continues; the returned error is
// reserved for problems with the cache itself and cancellation.
func (s *Syncer) DownloadMedia(ctx context.Context, cache Cache) (DownloadStats, error) {
	var stats DownloadStats
	moments, err := cache.Moments()
	if err != nil {
		return stats, err
	}
	for _, kind := range []string{"image", "video"} {
		if err := os.MkdirAll(cache.MediaDir(kind), 0o755); err != nil {
			return stats, fmt.Errorf("create %s dir: %w", kind, err)
		}
	}
	fmt.Fprintf(s.out, "Checking %d metadata items for download\n", len(moments))

	for _, m := range moments {
		stats.Checked++
		if err := s.downloadMoment(ctx, cache, m, &stats); err != nil {
			return stats, err
		}
		if stats.LimitHit {
			fmt.Fprintf(s.out, "(hit download file limit of %d)\n", s.opts.Limit)
			break
		}
	}

	fmt.Fprintf(s.out, "Downloaded %d files (%s)\n", stats.Downloaded, humanize.Bytes(uint64(stats.Bytes)))
	fmt.Fprintf(s.out, "With %d errors\n\n", len(stats.Errors))
	return stats, nil
}

func (s *Syncer) downloadMoment(ctx context.Context, cache Cache, m Moment, stats *DownloadStats) error {
	urls, err := m.MediaURLs()
	if err != nil {
		s.recordError(stats, m, err)
		return s.pace(ctx, s.fetch, s.waitMessage(stats))
	}
	if len(urls) == 0 {
		return nil
	}
	date, err := m.Date()
	if err != nil {
		s.recordError(stats, m, err)
		return nil
	}
	dir := cache.MediaDir(m.MediaDir())
	for _, u := range urls {
		dest := filepath.Join(dir, OutputName(date, u))
		if fileutil.HasContent(dest) {
			stats.Skipped++
			continue
		}
		if err := s.pace(ctx, s.fetch, s.waitMessage(stats)); err != nil {
			return err
		}
		n, err := s.source.Download(ctx, u, dest)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.recordError(stats, m, err)
			continue
		}
		stats.Downloaded++
		stats.Bytes += n
		s.logger.Debug("media downloaded",
			logging.String(logging.FieldMomentID, string(m.ID)),
			logging.String("path", dest),
			logging.String("size", humanize.Bytes(uint64(n))),
		)
		if s.opts.Limit > 0 && stats.Downloaded >= s.opts.Limit {
			stats.LimitHit = true
			return nil
		}
	}
	return nil
}

func (s *Syncer) recordError(stats *DownloadStats, m Moment, err error) {
	stats.Errors = append(stats.Errors, err.Error())
	logging.WarnWithContext(s.logger, "moment download failed", "moment_garden_download",
		logging.String(logging.FieldMomentID, string(m.ID)),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "rerun to retry; refresh cookies if every request fails"),
		logging.String(logging.FieldImpact, "media missing from local mirror"),
	)
}

func (s *Syncer) waitMessage(stats *DownloadStats) string {
	return fmt.Sprintf("wait: downloaded %d, waiting between files", stats.Downloaded)
}

// pace blocks until limiter admits the next request, showing the remaining
// time through the waiter.
func (s *Syncer) pace(ctx context.Context, limiter *rate.Limiter, message string) error {
	reservation := limiter.Reserve()
	delay := reservation.Delay()
	if delay <= 0 {
		return nil
	}
	if err := s.waiter.Wait(ctx, delay, message); err != nil {
		reservation.Cancel()
		return err
	}
	return nil
}

// Sync runs both phases for every garden. Gardens are independent: a
// failure is recorded in its report and the next garden still runs. The
// error reports whether anything failed.
func (s *Syncer) Sync(ctx context.Context, root string, gardens []Garden) ([]GardenReport, error) {
	reports := make([]GardenReport, 0, len(gardens))
	var failed []string
	for _, garden := range gardens {
		if err := ctx.Err(); err != nil {
			return reports, err
		}
		fmt.Fprintf(s.out, "Garden: %s\n", garden.Name)
		if s.opts.Session != nil {
			s.source = s.opts.Session(garden)
		}
		cache := Cache{Dir: filepath.Join(root, garden.Name), Logger: s.logger}
		report := GardenReport{Garden: garden.Name}
		logger := s.logger.With(logging.String(logging.FieldGarden, garden.Name))

		if !s.opts.SkipMetadata {
			stats, err := s.SyncMetadata(ctx, garden, cache)
			report.Metadata = stats
			if err != nil {
				if ctx.Err() != nil {
					return append(reports, report), ctx.Err()
				}
				report.Err = err.Error()
				logging.ErrorWithContext(logger, "metadata sync failed", "moment_garden_metadata",
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "check the garden cookies in the gardens file"),
				)
			}
		}

		downloads, err := s.DownloadMedia(ctx, cache)
		report.Downloads = downloads
		if err != nil {
			if ctx.Err() != nil {
				return append(reports, report), ctx.Err()
			}
			if report.Err == "" {
				report.Err = err.Error()
			}
			logging.ErrorWithContext(logger, "failure when downloading", "moment_garden_download",
				logging.Error(err),
			)
		}
		if report.Err != "" || len(report.Downloads.Errors) > 0 {
			failed = append(failed, garden.Name)
		}
		reports = append(reports, report)
	}
	if len(failed) > 0 {
		return reports, fmt.Errorf("%d garden(s) with errors: %w", len(failed), ErrDownloadErrors)
	}
	return reports, nil
}
