package translator

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"ocr-translator/internal/logger"
	"ocr-translator/internal/types"
)

// DefaultCharacterBudget is the largest unit sent to the backend, in characters.
const DefaultCharacterBudget = 8000

// DefaultRequestInterval is the minimum gap between backend calls.
const DefaultRequestInterval = 500 * time.Millisecond

// ProgressFunc reports completed and total translation units.
type ProgressFunc func(completed, total int)

// Unit is one request sent to the backend: one or more page segments joined
// with PageSeparator.
type Unit struct {
	Text     string
	Segments int
}

// Context returns the instructions sent alongside the unit.
func (u Unit) Context() string {
	if u.Segments <= 1 {
		return ""
	}
	return pageBreakContext(u.Segments)
}

// Options configure a DocumentTranslator.
type Options struct {
	SourceLanguage  string
	TargetLanguage  string
	CharacterBudget int
	Retry           RetryPolicy
	// RequestInterval is enforced between backend calls; zero disables it.
	RequestInterval time.Duration
	// Cache is optional. Hits skip the backend entirely.
	Cache *TranslationCache
	// CacheNamespace separates cache entries of different models.
	CacheNamespace string
	Progress       ProgressFunc
}

// Stats summarise the last TranslateDocument call.
type Stats struct {
	Units        int
	BackendCalls int
	CacheHits    int
	Attempts     int
	Drifted      int // units whose output segment count did not match
}

// DocumentTranslator 跨页批量翻译器
type DocumentTranslator struct {
	backend Backend
	opts    Options
	limiter *rate.Limiter
	stats   Stats
}

// NewDocumentTranslator creates a translator around backend.
func NewDocumentTranslator(backend Backend, opts Options) *DocumentTranslator {
	if opts.CharacterBudget <= 0 {
		opts.CharacterBudget = DefaultCharacterBudget
	}
	if opts.Retry.MaxAttempts <= 0 {
		opts.Retry.MaxAttempts = DefaultMaxAttempts
	}
	if opts.CacheNamespace == "" && backend != nil {
		opts.CacheNamespace = backend.Name()
	}

	d := &DocumentTranslator{backend: backend, opts: opts}
	if opts.RequestInterval > 0 {
		d.limiter = rate.NewLimiter(rate.Every(opts.RequestInterval), 1)
	}
	return d
}

// Stats returns counters for the most recent document.
func (d *DocumentTranslator) Stats() Stats {
	return d.stats
}

// PlanUnits partitions the page texts into translation units without calling
// the backend. A stream within budget becomes a single unit. Otherwise page
// segments are packed greedily; a segment larger than the budget is sent on
// its own and never split.
func (d *DocumentTranslator) PlanUnits(pageTexts []string) []Unit {
	if len(pageTexts) == 0 || allBlank(pageTexts) {
		return nil
	}

	stream := JoinPages(pageTexts)
	budget := d.opts.CharacterBudget
	if textLen(stream) <= budget {
		return []Unit{{Text: stream, Segments: len(pageTexts)}}
	}

	sepLen := textLen(PageSeparator)
	var units []Unit
	var batch []string
	total := 0
	flush := func() {
		if len(batch) == 0 {
			return
		}
		units = append(units, Unit{Text: JoinPages(batch), Segments: len(batch)})
		batch = nil
		total = 0
	}

	for _, segment := range SplitSegments(stream) {
		size := textLen(segment) + sepLen
		if len(batch) > 0 && total+size > budget {
			flush()
		}
		batch = append(batch, segment)
		total += size
	}
	flush()
	return units
}

// TranslateDocument translates every page and returns exactly one entry per
// input page. Units run sequentially in document order; ctx is checked before
// each one. A unit that still fails after its retries aborts the document.
func (d *DocumentTranslator) TranslateDocument(ctx context.Context, pageTexts []string) ([]string, error) {
	d.stats = Stats{}

	if allBlank(pageTexts) {
		logger.Info("all pages empty, skipping translation", logger.Int("pages", len(pageTexts)))
		return make([]string, len(pageTexts)), nil
	}
	if d.backend == nil {
		return nil, types.NewAppError(types.ErrConfig, "translation backend not configured", nil)
	}

	units := d.PlanUnits(pageTexts)
	d.stats.Units = len(units)
	logger.Info("translating document",
		logger.Int("pages", len(pageTexts)),
		logger.Int("units", len(units)),
		logger.Int("budget", d.opts.CharacterBudget),
		logger.String("backend", d.backend.Name()))

	segments := make([]string, 0, len(pageTexts))
	for i, unit := range units {
		if err := ctx.Err(); err != nil {
			return nil, types.NewAppErrorWithDetails(types.ErrTranslation, "translation cancelled",
				progressDetails(i, len(units)), err)
		}

		output, err := d.translateUnit(ctx, unit)
		if err != nil {
			return nil, types.NewAppErrorWithDetails(types.ErrTranslation, "translation unit failed",
				progressDetails(i, len(units)), err)
		}

		parts := SplitTranslated(output)
		if len(parts) != unit.Segments {
			d.stats.Drifted++
			logger.Warn("page marker count drift",
				logger.Int("unit", i+1),
				logger.Int("expected", unit.Segments),
				logger.Int("got", len(parts)))
		}
		segments = append(segments, parts...)

		if d.opts.Progress != nil {
			d.opts.Progress(i+1, len(units))
		}
	}

	if len(segments) != len(pageTexts) {
		logger.Warn("reconciling translated page count",
			logger.Int("expected", len(pageTexts)),
			logger.Int("got", len(segments)))
	}

	logger.Info("document translated",
		logger.Int("units", d.stats.Units),
		logger.Int("backendCalls", d.stats.BackendCalls),
		logger.Int("cacheHits", d.stats.CacheHits),
		logger.Int("drifted", d.stats.Drifted))

	return reconcile(segments, len(pageTexts)), nil
}

func (d *DocumentTranslator) translateUnit(ctx context.Context, unit Unit) (string, error) {
	// blank pages pass through untranslated
	if allBlank(SplitSegments(unit.Text)) {
		logger.Debug("blank unit passed through", logger.Int("segments", unit.Segments))
		return unit.Text, nil
	}

	key := CacheKey{
		Namespace:      d.opts.CacheNamespace,
		SourceLanguage: d.opts.SourceLanguage,
		TargetLanguage: d.opts.TargetLanguage,
		Text:           unit.Text,
	}
	if d.opts.Cache != nil {
		if cached, ok := d.opts.Cache.Get(key); ok {
			d.stats.CacheHits++
			logger.Debug("unit served from cache", logger.Int("segments", unit.Segments))
			return cached, nil
		}
	}

	req := Request{
		Text:           unit.Text,
		SourceLanguage: d.opts.SourceLanguage,
		TargetLanguage: d.opts.TargetLanguage,
		Context:        unit.Context(),
	}

	var output string
	attempts, err := d.opts.Retry.Do(ctx, func(ctx context.Context) error {
		if d.limiter != nil {
			if err := d.limiter.Wait(ctx); err != nil {
				return err
			}
		}
		d.stats.BackendCalls++
		var callErr error
		output, callErr = d.backend.Translate(ctx, req)
		return callErr
	})
	d.stats.Attempts += attempts
	if err != nil {
		return "", err
	}

	if d.opts.Cache != nil {
		d.opts.Cache.Set(key, output)
		if err := d.opts.Cache.Save(); err != nil {
			logger.Warn("failed to save translation cache", logger.Err(err))
		}
	}
	return output, nil
}

func progressDetails(done, total int) string {
	return fmt.Sprintf("completed %d of %d units", done, total)
}
