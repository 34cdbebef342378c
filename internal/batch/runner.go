// Package batch encodes the requests of a configuration file into
// multipart bodies on disk.
//
// # Output
//
// For every request the runner writes two files to the output directory:
//
//   - <name>.multipart (or <name>.multipart.gz): the encoded body
//   - <name>.headers: the Content-Type, Content-Length and, when gzipped,
//     Content-Encoding headers to send with it
//
// # Payload Normalization
//
// Before encoding, payload keys are optionally converted to snake_case and
// time.Time values are rendered with the configured timestamp formatter.
// Two keys of one object that convert to the same snake_case key fail the
// request with [ErrKeyCollision].
//
// # Compression
//
// With output.gzip set, bodies are gzipped at output.gzipLevel unless a
// file is already in a compressed format such as PNG or ZIP (see
// [compression.ShouldCompressAll]). Such bodies are written uncompressed.
//
// # Concurrency
//
// Requests are encoded concurrently, bounded by encoder.workers. A failing
// request does not stop the others. Progress is recorded in a [Tracker] and
// totals in a [Summary].
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
	"golang.org/x/sync/errgroup"

	"github.com/sirosfoundation/go-apikit/internal/config"
	"github.com/sirosfoundation/go-apikit/pkg/compression"
	"github.com/sirosfoundation/go-apikit/pkg/datefmt"
	"github.com/sirosfoundation/go-apikit/pkg/lock"
	"github.com/sirosfoundation/go-apikit/pkg/multipart"
	"github.com/sirosfoundation/go-apikit/pkg/strcase"
)

// ErrKeyCollision is returned when two payload keys normalize to the same key
var ErrKeyCollision = errors.New("payload keys collide")

const (
	bodySuffix    = ".multipart"
	gzipSuffix    = ".gz"
	headersSuffix = ".headers"
)

// Summary holds the totals of a batch run
type Summary struct {
	Requests int
	Written  int
	Failed   int
	Files    int
	Bytes    int64
	Duration time.Duration
}

// Runner encodes configured requests. Run may be called again once the
// previous call has returned; it must not be called concurrently.
type Runner struct {
	cfg        *config.Config
	encoder    *multipart.Encoder
	formatter  *datefmt.Formatter
	compressor *compression.Compressor
	tracker    *Tracker
	summary    *lock.Value[Summary]
	logger     *slog.Logger
}

// NewRunner creates a runner for cfg
func NewRunner(cfg *config.Config, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}

	var opts []multipart.Option
	if cfg.Encoder.CollisionCheck > 0 {
		opts = append(opts, multipart.WithCollisionCheck(cfg.Encoder.CollisionCheck))
	}

	compressor, err := compression.NewCompressorWithLevel(cfg.Output.Level())
	if err != nil {
		logger.Warn("falling back to default gzip level", "error", err)
		compressor = compression.NewCompressor()
	}

	return &Runner{
		cfg:        cfg,
		encoder:    multipart.NewEncoder(opts...),
		formatter:  datefmt.New(datefmt.WithLocation(cfg.Payload.Location())),
		compressor: compressor,
		tracker:    NewTracker(),
		summary:    lock.NewValue(Summary{}),
		logger:     logger,
	}
}

// Tracker returns the tracker of the current or most recent run
func (r *Runner) Tracker() *Tracker {
	return r.tracker
}

// Run encodes every request and writes the results. It returns the
// summary together with the joined errors of all failed requests.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	start := time.Now()

	r.tracker = NewTracker()
	r.summary.Store(Summary{})

	if err := os.MkdirAll(r.cfg.Output.Dir, 0o755); err != nil {
		return Summary{}, fmt.Errorf("creating output directory: %w", err)
	}

	for _, req := range r.cfg.Requests {
		if err := r.tracker.Track(req.Name); err != nil {
			return Summary{}, err
		}
	}

	failures := lock.NewValue[[]error](nil)

	g, ctx := errgroup.WithContext(ctx)
	if r.cfg.Encoder.Workers > 0 {
		g.SetLimit(r.cfg.Encoder.Workers)
	}

	r.logger.Info("batch started", "requests", len(r.cfg.Requests), "workers", r.cfg.Encoder.Workers)

	for _, req := range r.cfg.Requests {
		g.Go(func() error {
			if err := r.process(ctx, req); err != nil {
				_ = failures.Update(func(errs *[]error) error {
					*errs = append(*errs, fmt.Errorf("%s: %w", req.Name, err))
					return nil
				})
			}
			return nil
		})
	}
	_ = g.Wait()

	_ = r.summary.Update(func(s *Summary) error {
		s.Requests = len(r.cfg.Requests)
		s.Duration = time.Since(start)
		return nil
	})
	summary := r.summary.Load()

	r.logger.Info("batch finished",
		"written", summary.Written,
		"failed", summary.Failed,
		"bytes", summary.Bytes,
		"duration", summary.Duration)

	return summary, errors.Join(failures.Load()...)
}

func (r *Runner) process(ctx context.Context, req config.Request) error {
	log := r.logger.With("request", req.Name)

	err := r.build(ctx, req, log)
	if err == nil {
		return nil
	}

	log.Error("request failed", "error", err)
	if markErr := r.tracker.MarkFailed(req.Name, err); markErr != nil {
		log.Warn("failed to record failure", "error", markErr)
	}
	_ = r.summary.Update(func(s *Summary) error {
		s.Failed++
		return nil
	})
	return err
}

func (r *Runner) build(ctx context.Context, req config.Request, log *slog.Logger) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := r.tracker.MarkEncoding(req.Name); err != nil {
		return err
	}

	files := make([]multipart.File, 0, len(req.Files))
	for _, f := range req.Files {
		data, err := os.ReadFile(f.Path)
		if err != nil {
			return fmt.Errorf("reading file: %w", err)
		}
		files = append(files, multipart.File{
			Filename: f.Filename,
			MimeType: f.MimeType,
			Data:     data,
		})
	}

	normalized, err := r.normalize(req.Payload)
	if err != nil {
		return fmt.Errorf("normalizing payload: %w", err)
	}
	fields, _ := normalized.(map[string]any)
	if fields == nil {
		fields = map[string]any{}
	}

	body, err := r.encoder.Encode(fields, files)
	if err != nil {
		return fmt.Errorf("encoding body: %w", err)
	}
	log.Debug("body encoded", "boundary", body.Boundary, "files", len(files), "size", len(body.Data))

	data := body.Data
	bodyPath := filepath.Join(r.cfg.Output.Dir, req.Name+bodySuffix)
	headers := []string{
		"Content-Type: " + body.ContentType(),
	}
	compress := r.cfg.Output.Gzip
	if compress && !compression.ShouldCompressAll(mimeTypes(files)...) {
		log.Info("gzip skipped for already compressed files", "files", len(files))
		compress = false
	}
	if compress {
		data, err = r.compressor.Compress(body.Data)
		if err != nil {
			return fmt.Errorf("compressing body: %w", err)
		}
		bodyPath += gzipSuffix
		headers = append(headers, "Content-Encoding: "+compression.ContentEncodingGzip)
	}
	headers = append(headers, "Content-Length: "+strconv.Itoa(len(data)))

	if err := os.WriteFile(bodyPath, data, 0o644); err != nil {
		return fmt.Errorf("writing body: %w", err)
	}
	headersPath := filepath.Join(r.cfg.Output.Dir, req.Name+headersSuffix)
	if err := os.WriteFile(headersPath, []byte(strings.Join(headers, "\r\n")+"\r\n"), 0o644); err != nil {
		return fmt.Errorf("writing headers: %w", err)
	}

	if err := r.tracker.MarkWritten(req.Name, body.Boundary, len(data), len(files)); err != nil {
		return err
	}
	_ = r.summary.Update(func(s *Summary) error {
		s.Written++
		s.Files += len(files)
		s.Bytes += int64(len(data))
		return nil
	})

	log.Info("request written", "path", bodyPath, "bytes", len(data))
	return nil
}

// normalize prepares a decoded YAML value for JSON encoding
func (r *Runner) normalize(v any) (any, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		out := make(map[string]any, len(val))
		sources := make(map[string]string, len(val))
		for k, item := range val {
			if err := r.normalizeEntry(out, sources, k, item); err != nil {
				return nil, err
			}
		}
		return out, nil
	case map[any]any:
		out := make(map[string]any, len(val))
		sources := make(map[string]string, len(val))
		for k, item := range val {
			if err := r.normalizeEntry(out, sources, cast.ToString(k), item); err != nil {
				return nil, err
			}
		}
		return out, nil
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			n, err := r.normalize(item)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = n
		}
		return out, nil
	case time.Time:
		return r.formatter.Format(val), nil
	default:
		return val, nil
	}
}

// normalizeEntry stores item under the normalized form of k. sources maps
// each normalized key to the key it came from.
func (r *Runner) normalizeEntry(out map[string]any, sources map[string]string, k string, item any) error {
	key := r.key(k)
	if prev, ok := sources[key]; ok {
		first, second := prev, k
		if second < first {
			first, second = second, first
		}
		return fmt.Errorf("%w: %q and %q both map to %q", ErrKeyCollision, first, second, key)
	}
	sources[key] = k

	n, err := r.normalize(item)
	if err != nil {
		return fmt.Errorf("%s: %w", k, err)
	}
	out[key] = n
	return nil
}

func (r *Runner) key(k string) string {
	if r.cfg.Payload.SnakeCaseKeys {
		return strcase.SnakeCase(k)
	}
	return k
}

func mimeTypes(files []multipart.File) []string {
	types := make([]string, len(files))
	for i, f := range files {
		types[i] = f.MimeType
	}
	return types
}
