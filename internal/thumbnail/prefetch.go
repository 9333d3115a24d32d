package thumbnail

import (
	"context"
	"fmt"
	"io"

	"github.com/Ning0612/Cloudbrowse/internal/domain"
	"github.com/Ning0612/Cloudbrowse/internal/logger"
	"github.com/Ning0612/Cloudbrowse/internal/metrics"
)

// Source supplies encoded preview images
type Source interface {
	Thumbnail(ctx context.Context, entry *domain.Entry, width, height int) (io.ReadCloser, error)
}

// Result summarizes one prefetch run
type Result struct {
	Fetched      int
	Placeholders int
	// Skipped counts entries left untouched because the run was cancelled
	Skipped      int
	Cancelled    bool
}

// Prefetcher fetches previews sequentially, in list order
type Prefetcher struct {
	source      Source
	width       int
	height      int
	placeholder *domain.Thumbnail
	log         logger.Logger
	notify      func(*domain.Entry)
}

// Option configures a Prefetcher
type Option func(*Prefetcher)

// WithSize sets the preview bound
func WithSize(width, height int) Option {
	return func(p *Prefetcher) {
		if width > 0 && height > 0 {
			p.width, p.height = width, height
		}
	}
}

// WithLogger sets the logger
func WithLogger(l logger.Logger) Option {
	return func(p *Prefetcher) { p.log = l }
}

// WithNotify registers a callback invoked after each thumbnail assignment
func WithNotify(fn func(*domain.Entry)) Option {
	return func(p *Prefetcher) { p.notify = fn }
}

// New creates a prefetcher reading previews from source
func New(source Source, opts ...Option) *Prefetcher {
	p := &Prefetcher{
		source: source,
		width:  DefaultSize,
		height: DefaultSize,
		log:    logger.Component("thumbnail"),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.placeholder = &domain.Thumbnail{
		Image:       Placeholder(p.width, p.height),
		Placeholder: true,
	}
	return p
}

// Run fetches a preview for every entry in order. The context is checked
// before each entry; once it is cancelled the loop stops and the remaining
// entries keep their current thumbnail. Failures never abort the run: the
// entry gets the placeholder image instead.
//
// ctx is also handed to the source, so cancelling it aborts the fetch in
// flight. That entry counts as skipped and keeps its current thumbnail
// rather than getting the placeholder.
func (p *Prefetcher) Run(ctx context.Context, entries []*domain.Entry) Result {
	var res Result

	for i, e := range entries {
		if ctx.Err() != nil {
			res.Cancelled = true
			res.Skipped = len(entries) - i
			break
		}

		thumb, err := p.fetch(ctx, e)
		if err != nil && ctx.Err() != nil {
			// Interrupted mid-fetch: leave the entry as it was
			res.Cancelled = true
			res.Skipped = len(entries) - i
			break
		}
		if err != nil {
			p.log.Debug("thumbnail unavailable", "path", e.Path, "error", err)
			thumb = p.placeholder
			res.Placeholders++
		} else {
			res.Fetched++
		}

		e.SetThumbnail(thumb)
		metrics.RecordThumbnail(thumb.Placeholder)
		if p.notify != nil {
			p.notify(e)
		}
	}

	if res.Cancelled {
		metrics.RecordPrefetchCancelled()
	}
	p.log.Debug("thumbnail prefetch finished",
		"fetched", res.Fetched,
		"placeholders", res.Placeholders,
		"skipped", res.Skipped,
		"cancelled", res.Cancelled,
	)
	return res
}

// Placeholder returns the shared "not found" thumbnail
func (p *Prefetcher) Placeholder() *domain.Thumbnail {
	return p.placeholder
}

func (p *Prefetcher) fetch(ctx context.Context, e *domain.Entry) (thumb *domain.Thumbnail, err error) {
	defer func() {
		if r := recover(); r != nil {
			thumb, err = nil, fmt.Errorf("preview decoder panic: %v", r)
		}
	}()

	rc, err := p.source.Thumbnail(ctx, e, p.width, p.height)
	metrics.RecordRemoteCall("thumbnail", err)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	img, err := Decode(rc, p.width, p.height)
	if err != nil {
		return nil, err
	}
	return &domain.Thumbnail{Image: img}, nil
}
