// Package acquire downloads new images into the managed directory: it
// enforces per-source budgets, walks the fallback chain in silent mode,
// drops content duplicates and assigns sequence numbers.
package acquire

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/genricoloni/visuals/internal/config"
	"github.com/genricoloni/visuals/internal/domain"
	"github.com/genricoloni/visuals/internal/library"
	"github.com/genricoloni/visuals/internal/ratelimit"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// maxPages bounds how many result pages are requested when duplicates
// leave a batch short
const maxPages = 3

// Sources resolves source ids to clients
type Sources interface {
	Get(id domain.SourceID) (domain.Source, error)
}

// Request describes one acquisition batch
type Request struct {
	// Source defaults to the configured source
	Source domain.SourceID
	// Query defaults to the source vocabulary (silent) or the remembered theme
	Query  string
	Count  int
	Silent bool
}

// EventKind classifies a progress event
type EventKind int

const (
	EventAccepted EventKind = iota
	EventDuplicate
	EventFailed
)

// Event reports the fate of a single candidate
type Event struct {
	Kind      EventKind
	Source    domain.SourceID
	Candidate domain.Candidate
	// Image is set for accepted candidates
	Image library.Image
	// Existing is the path of the file a duplicate matched
	Existing string
	Err      error
}

// Attempt records a source that was tried and failed
type Attempt struct {
	Source domain.SourceID
	Err    error
}

// Result summarizes a batch
type Result struct {
	// Source is the source that served the batch
	Source     domain.SourceID
	Query      string
	Accepted   []library.Image
	Duplicates int
	Failed     int
	// Requests is the number of network calls made
	Requests int
	// FellBack lists the sources abandoned before Source
	FellBack []Attempt
}

// Dispatcher runs acquisition batches
type Dispatcher struct {
	logger    *zap.Logger
	sources   Sources
	fetcher   domain.Fetcher
	processor domain.ImageProcessor
	library   *library.Library
	screen    domain.ScreenResolution

	now  func() time.Time
	pick func(n int) int

	mu       sync.Mutex
	limiters map[domain.SourceID]*rate.Limiter
}

// NewDispatcher creates an acquisition dispatcher
func NewDispatcher(
	logger *zap.Logger,
	sources Sources,
	fetch domain.Fetcher,
	proc domain.ImageProcessor,
	lib *library.Library,
	screen domain.ScreenResolution,
) *Dispatcher {
	return &Dispatcher{
		logger:    logger,
		sources:   sources,
		fetcher:   fetch,
		processor: proc,
		library:   lib,
		screen:    screen,
		now:       time.Now,
		pick:      rand.IntN,
		limiters:  make(map[domain.SourceID]*rate.Limiter),
	}
}

// batch is the state shared by every source tried in one Acquire call
type batch struct {
	hashes map[string]string
	taken  map[int]bool
	next   int
}

// Acquire runs one batch against cfg. The caller holds the configuration
// lock and persists cfg afterwards; cfg is updated in place with counters,
// the next sequence number and the remembered theme.
func (d *Dispatcher) Acquire(ctx context.Context, cfg *config.Config, req Request, progress func(Event)) (Result, error) {
	if req.Source == "" {
		req.Source = cfg.Source
	}
	if req.Count < 1 {
		req.Count = 1
	}
	if progress == nil {
		progress = func(Event) {}
	}

	images, err := d.library.List()
	if err != nil {
		return Result{}, err
	}
	hashes, err := d.library.Hashes(ctx, images)
	if err != nil {
		return Result{}, err
	}
	st := &batch{
		hashes: hashes,
		taken:  make(map[int]bool, len(images)),
		next:   library.NextSequence(cfg.NextSequence, images),
	}
	for _, img := range images {
		st.taken[img.Sequence] = true
	}

	var result Result
	var lastErr error
	chain := fallbackChain(req)
	for i, id := range chain {
		res, err := d.acquireFrom(ctx, cfg, id, req, st, progress)
		result.Requests += res.Requests
		result.Duplicates += res.Duplicates
		result.Failed += res.Failed
		result.Accepted = append(result.Accepted, res.Accepted...)

		if err == nil {
			result.Source = id
			result.Query = res.Query
			d.logger.Info("Acquisition finished",
				zap.String("source", id.String()),
				zap.String("query", res.Query),
				zap.Int("accepted", len(res.Accepted)),
				zap.Int("duplicates", res.Duplicates),
				zap.Int("failed", res.Failed),
				zap.Int("requests", result.Requests))
			return result, nil
		}

		result.FellBack = append(result.FellBack, Attempt{Source: id, Err: err})
		lastErr = err
		if !req.Silent || !domain.CanFallBack(err) || i == len(chain)-1 {
			break
		}
		d.logger.Warn("Source failed, falling back",
			zap.String("source", id.String()),
			zap.String("next", chain[i+1].String()),
			zap.Error(err))
	}

	result.FellBack = result.FellBack[:len(result.FellBack)-1]
	return result, lastErr
}

// fallbackChain is the ordered list of sources a request may use
func fallbackChain(req Request) []domain.SourceID {
	chain := []domain.SourceID{req.Source}
	if req.Silent && req.Source != domain.FallbackSource {
		chain = append(chain, domain.FallbackSource)
	}
	return chain
}

func (d *Dispatcher) acquireFrom(
	ctx context.Context,
	cfg *config.Config,
	id domain.SourceID,
	req Request,
	st *batch,
	progress func(Event),
) (Result, error) {
	res := Result{Source: id}

	src, err := d.sources.Get(id)
	if err != nil {
		return res, err
	}
	desc := src.Descriptor()

	credential := cfg.Credential(id)
	if desc.RequiresCredential && credential == "" {
		return res, fmt.Errorf("%s: %w", id, domain.ErrCredentialMissing)
	}

	budget := ratelimit.BudgetFor(desc)
	window := budget.Refresh(cfg.Window(id), d.now())
	cfg.SetWindow(id, window)

	// spend records one network call against the budget
	spend := func(remaining int) {
		res.Requests++
		window = budget.Consume(window, 1, d.now())
		if remaining >= 0 {
			window = budget.Sync(window, remaining, d.now())
		}
		cfg.SetWindow(id, window)
	}
	// admit checks the budget and paces the next call
	admit := func() error {
		if budget.Exhausted(window, d.now()) {
			return &domain.RateLimitError{Source: id, ResetIn: budget.ResetIn(window, d.now())}
		}
		return d.limiter(id, budget).Wait(ctx)
	}

	res.Query = d.query(cfg, desc, req)
	accepted := 0
	var lastErr error

pages:
	for page := 1; page <= maxPages && accepted < req.Count; page++ {
		if err := admit(); err != nil {
			if accepted > 0 || res.Duplicates > 0 {
				lastErr = err
				break
			}
			return res, err
		}

		want := req.Count - accepted
		found, err := src.Search(ctx, domain.SearchRequest{
			Query:      res.Query,
			Count:      want,
			Page:       page,
			Credential: credential,
			Silent:     req.Silent,
			Screen:     d.screen,
		})
		switch {
		case err == nil:
			spend(found.Remaining)
		case errors.Is(err, domain.ErrRateLimited):
			spend(-1)
			window = budget.Consume(window, budget.Capacity, d.now())
			cfg.SetWindow(id, window)
		default:
			spend(-1)
		}
		if err != nil {
			if page > 1 && errors.Is(err, domain.ErrNoResults) {
				break
			}
			if accepted > 0 {
				lastErr = err
				break
			}
			return res, err
		}

		for _, c := range found.Candidates {
			if accepted >= req.Count {
				break pages
			}
			if err := admit(); err != nil {
				lastErr = err
				break pages
			}

			data, err := d.fetcher.Fetch(ctx, c.URL)
			spend(-1)
			if err != nil {
				res.Failed++
				lastErr = err
				d.logger.Warn("Download failed", zap.String("url", c.URL), zap.Error(err))
				progress(Event{Kind: EventFailed, Source: id, Candidate: c, Err: err})
				continue
			}

			img, err := d.processor.Process(ctx, data)
			if err != nil {
				res.Failed++
				lastErr = err
				d.logger.Warn("Image rejected", zap.String("url", c.URL), zap.Error(err))
				progress(Event{Kind: EventFailed, Source: id, Candidate: c, Err: err})
				continue
			}

			hash := library.HashBytes(img.Data)
			if existing, dup := st.hashes[hash]; dup {
				res.Duplicates++
				d.logger.Debug("Duplicate skipped", zap.String("url", c.URL), zap.String("existing", existing))
				progress(Event{Kind: EventDuplicate, Source: id, Candidate: c, Existing: existing})
				continue
			}

			theme := c.Theme
			if theme == "" {
				theme = res.Query
			}
			written, err := d.store(cfg, st, id, theme, c.NativeID, img)
			if err != nil {
				return res, err
			}
			st.hashes[hash] = written.Path
			res.Accepted = append(res.Accepted, written)
			accepted++
			progress(Event{Kind: EventAccepted, Source: id, Candidate: c, Image: written})
		}

		if len(found.Candidates) < want {
			break
		}
	}

	if err := ctx.Err(); err != nil {
		return res, err
	}

	if accepted == 0 {
		switch {
		case lastErr != nil && res.Duplicates == 0:
			return res, lastErr
		case req.Silent:
			// Silent runs need a new image; move on to the next source
			return res, fmt.Errorf("%s: %w: only duplicates", id, domain.ErrNoResults)
		}
	}

	if !req.Silent && req.Query != "" {
		cfg.Themes[id] = req.Query
	}
	return res, nil
}

// store writes img under the next free sequence number
func (d *Dispatcher) store(cfg *config.Config, st *batch, id domain.SourceID, theme, nativeID string, img domain.ProcessedImage) (library.Image, error) {
	seq := st.next
	for {
		if st.taken[seq] {
			seq++
			continue
		}
		written, err := d.library.Write(library.NewName(seq, id.String(), theme, nativeID, img.Ext), img.Data)
		if errors.Is(err, library.ErrSequenceTaken) {
			st.taken[seq] = true
			seq++
			continue
		}
		if err != nil {
			return library.Image{}, err
		}

		st.taken[seq] = true
		st.next = seq + 1
		cfg.NextSequence = st.next
		return written, nil
	}
}

// query picks the search terms for a request
func (d *Dispatcher) query(cfg *config.Config, desc domain.SourceDescriptor, req Request) string {
	if req.Query != "" {
		return req.Query
	}
	if req.Silent && len(desc.SilentVocabulary) > 0 {
		return desc.SilentVocabulary[d.pick(len(desc.SilentVocabulary))]
	}
	if theme := cfg.Themes[desc.ID]; theme != "" {
		return theme
	}
	return desc.DefaultQuery
}

// limiter returns the pacing limiter for id
func (d *Dispatcher) limiter(id domain.SourceID, budget ratelimit.Budget) *rate.Limiter {
	d.mu.Lock()
	defer d.mu.Unlock()
	l, ok := d.limiters[id]
	if !ok {
		l = budget.Limiter()
		d.limiters[id] = l
	}
	return l
}
