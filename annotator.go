package duotext

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
)

// Annotator applies bilingual annotation actions to fields. It owns the
// per-field locks, so concurrent runs on the same Annotator never interleave
// on a single field.
type Annotator struct {
	targetLang    string
	sourceLang    string
	provider      AIProvider
	cache         TranslationCache
	placement     Placement
	excludedTerms []string
	context       string
	glossary      map[string]string
	style         TranslationStyle
	processors    map[string]ContentProcessor
	logger        *logrus.Logger
	metrics       *Metrics
	concurrency   int
	batchSize     int
	busy          BusyPolicy
	locks         *FieldLocks
}

// AIProvider is the interface for AI translation backends.
type AIProvider interface {
	Translate(ctx context.Context, req TranslateRequest) ([]string, error)
}

// TranslateRequest contains the parameters for a translation request.
type TranslateRequest struct {
	Texts         []string
	TargetLang    string
	SourceLang    string
	ExcludedTerms []string
	Context       string
	TextContexts  []string
	Glossary      map[string]string
	Style         TranslationStyle
}

// TranslationCache is the interface for translation caching.
type TranslationCache interface {
	Get(key string) (string, bool)
	Set(key string, value string) error
}

// ContentProcessor extracts fields from a content format and writes rewritten
// field values back. Rewrites are keyed by TextNode.ID; nodes without a
// rewrite keep their current value.
type ContentProcessor interface {
	Extract(content string) (interface{}, []TextNode, error)
	Apply(parsed interface{}, nodes []TextNode, rewrites map[string]string) (string, error)
	ContentType() string
}

// AnnotatorOption is a functional option for configuring the Annotator.
type AnnotatorOption func(*Annotator)

// WithSourceLang sets the source language.
func WithSourceLang(lang string) AnnotatorOption {
	return func(a *Annotator) {
		a.sourceLang = lang
	}
}

// WithCache sets the translation cache.
func WithCache(cache TranslationCache) AnnotatorOption {
	return func(a *Annotator) {
		a.cache = cache
	}
}

// WithPlacement sets where the translation goes relative to the original.
func WithPlacement(p Placement) AnnotatorOption {
	return func(a *Annotator) {
		a.placement = p
	}
}

// WithExcludedTerms sets terms that should not be translated.
func WithExcludedTerms(terms []string) AnnotatorOption {
	return func(a *Annotator) {
		a.excludedTerms = terms
	}
}

// WithContext sets the global translation context.
func WithContext(ctx string) AnnotatorOption {
	return func(a *Annotator) {
		a.context = ctx
	}
}

// WithGlossary sets preferred translations for specific phrases.
func WithGlossary(glossary map[string]string) AnnotatorOption {
	return func(a *Annotator) {
		a.glossary = glossary
	}
}

// WithStyle sets the translation style/register.
func WithStyle(style TranslationStyle) AnnotatorOption {
	return func(a *Annotator) {
		a.style = style
	}
}

// WithProcessor registers a content processor.
func WithProcessor(processor ContentProcessor) AnnotatorOption {
	return func(a *Annotator) {
		a.processors[processor.ContentType()] = processor
	}
}

// WithLogger sets the logger. Without it the Annotator logs nowhere.
func WithLogger(logger *logrus.Logger) AnnotatorOption {
	return func(a *Annotator) {
		a.logger = logger
	}
}

// WithMetrics sets the Prometheus collectors to report to.
func WithMetrics(m *Metrics) AnnotatorOption {
	return func(a *Annotator) {
		a.metrics = m
	}
}

// WithConcurrency bounds the number of provider requests in flight.
func WithConcurrency(n int) AnnotatorOption {
	return func(a *Annotator) {
		a.concurrency = n
	}
}

// WithBatchSize sets how many texts go into one provider request.
func WithBatchSize(n int) AnnotatorOption {
	return func(a *Annotator) {
		a.batchSize = n
	}
}

// WithBusyPolicy sets what happens when a field is already being processed.
func WithBusyPolicy(p BusyPolicy) AnnotatorOption {
	return func(a *Annotator) {
		a.busy = p
	}
}

// NewAnnotator creates an Annotator for the given target language and provider.
// provider may be nil when only restore, clear and toggle are needed.
func NewAnnotator(targetLang string, provider AIProvider, opts ...AnnotatorOption) *Annotator {
	a := &Annotator{
		targetLang:  targetLang,
		sourceLang:  "en",
		provider:    provider,
		style:       StyleNeutral,
		processors:  make(map[string]ContentProcessor),
		concurrency: 4,
		batchSize:   50,
		locks:       NewFieldLocks(),
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.logger == nil {
		a.logger = logrus.New()
		a.logger.SetOutput(io.Discard)
	}
	if a.concurrency < 1 {
		a.concurrency = 1
	}
	if a.batchSize < 1 {
		a.batchSize = 50
	}

	return a
}

// Translate annotates fields with a fresh translation. With no keys, every
// field in the table is considered. Empty fields are skipped; fields whose
// translation fails are left untouched and reported.
func (a *Annotator) Translate(ctx context.Context, table FieldTable, keys ...string) (*Report, error) {
	return a.apply(ctx, table, ActionTranslate, keys, true)
}

// Restore strips annotated fields back to their original and clears the
// stored metadata original.
func (a *Annotator) Restore(ctx context.Context, table FieldTable, keys ...string) (*Report, error) {
	return a.apply(ctx, table, ActionRestore, keys, true)
}

// ClearOriginal keeps only the translation of annotated fields and wipes the
// stored metadata original. It cannot be undone.
func (a *Annotator) ClearOriginal(ctx context.Context, table FieldTable, keys ...string) (*Report, error) {
	return a.apply(ctx, table, ActionClearOriginal, keys, true)
}

// Toggle flips fields between bilingual and original-only display.
func (a *Annotator) Toggle(ctx context.Context, table FieldTable, keys ...string) (*Report, error) {
	return a.apply(ctx, table, ActionToggle, keys, true)
}

// TranslateOrRestore restores annotated fields and translates plain ones.
func (a *Annotator) TranslateOrRestore(ctx context.Context, table FieldTable, keys ...string) (*Report, error) {
	return a.apply(ctx, table, ActionAuto, keys, true)
}

// Run applies action to the table.
func (a *Annotator) Run(ctx context.Context, table FieldTable, action Action, keys ...string) (*Report, error) {
	return a.apply(ctx, table, action, keys, true)
}

// Inspect reports the state of each field without modifying anything.
func (a *Annotator) Inspect(ctx context.Context, table FieldTable, keys ...string) ([]FieldState, error) {
	if len(keys) == 0 {
		all, err := table.Keys(ctx)
		if err != nil {
			return nil, err
		}
		keys = all
	}

	states := make([]FieldState, 0, len(keys))
	for _, key := range keys {
		raw, err := table.GetText(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("inspect %q: %w", key, err)
		}
		meta, err := table.GetOriginal(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("inspect %q: %w", key, err)
		}

		layout := ClassifyLayout(raw, meta != "")
		original := ExtractOriginal(raw)
		if layout == LayoutOriginalOnly {
			original = meta
		}
		states = append(states, FieldState{
			Key:         key,
			Layout:      layout,
			Original:    original,
			Display:     Visible(raw),
			HasMetadata: meta != "",
		})
	}
	return states, nil
}

// Process applies action to every field a registered processor finds in content.
func (a *Annotator) Process(ctx context.Context, content string, contentType string, action Action) (*ProcessedContent, error) {
	processor, ok := a.processors[contentType]
	if !ok {
		return nil, &ProcessorError{
			Message:     "no processor registered for content type",
			ContentType: contentType,
		}
	}

	parsed, nodes, err := processor.Extract(content)
	if err != nil {
		return nil, err
	}

	fields := newNodeTable(nodes)
	report, err := a.apply(ctx, fields, action, nil, false)
	if err != nil {
		return nil, err
	}

	rewrites := fields.rewrites()
	if len(rewrites) == 0 {
		return &ProcessedContent{Content: content, Report: report}, nil
	}

	result, err := processor.Apply(parsed, nodes, rewrites)
	if err != nil {
		return nil, err
	}

	return &ProcessedContent{Content: result, Report: report}, nil
}

// ProcessHTML is a convenience method for processing HTML content.
func (a *Annotator) ProcessHTML(ctx context.Context, html string, action Action) (*ProcessedContent, error) {
	return a.Process(ctx, html, "html", action)
}

// TranslateText translates a single text through the cache and provider.
// Annotated input is reduced to its original first.
func (a *Annotator) TranslateText(ctx context.Context, text string) (string, error) {
	node := NewTextNode("text", text, "field")
	if strings.TrimSpace(node.Text) == "" {
		return "", nil
	}
	if a.isSourceLang() {
		return node.Text, nil
	}

	res := a.translateNodes(ctx, []TextNode{node}, a.logger.WithField("action", "translate_text"))
	if tr, ok := res.translations[node.Hash]; ok {
		return tr, nil
	}
	return "", res.errFor(node.Hash)
}

// run carries the state of one apply call.
type run struct {
	a      *Annotator
	table  FieldTable
	report *Report
	log    *logrus.Entry
}

type field struct {
	key  string
	raw  string
	meta string
}

func (a *Annotator) apply(ctx context.Context, table FieldTable, action Action, keys []string, lock bool) (*Report, error) {
	if _, ok := ParseAction(string(action)); !ok {
		return nil, fmt.Errorf("unknown action %q", action)
	}

	report := &Report{RunID: uuid.NewString(), Action: action}
	r := &run{
		a:      a,
		table:  table,
		report: report,
		log: a.logger.WithFields(logrus.Fields{
			"run_id": report.RunID,
			"action": string(action),
		}),
	}

	fields, release, err := r.collect(ctx, keys, lock)
	if err != nil {
		return nil, err
	}
	defer release()

	var pending []field
	for _, f := range fields {
		switch action {
		case ActionTranslate:
			pending = append(pending, f)
		case ActionRestore:
			r.restore(ctx, f)
		case ActionClearOriginal:
			r.clearOriginal(ctx, f)
		case ActionToggle:
			r.toggle(ctx, f)
		case ActionAuto:
			if HasTranslation(f.raw) {
				r.restore(ctx, f)
			} else {
				pending = append(pending, f)
			}
		}
	}
	if len(pending) > 0 {
		r.translate(ctx, pending)
	}

	r.log.WithFields(logrus.Fields{
		"count":   report.Total,
		"changed": report.Changed(),
		"skipped": report.Skipped,
		"failed":  report.Failed,
	}).Info("annotation run finished")

	return report, nil
}

// collect locks and reads the fields. Locks are taken in sorted key order and
// held until the returned release function runs.
func (r *run) collect(ctx context.Context, keys []string, lock bool) ([]field, func(), error) {
	if len(keys) == 0 {
		all, err := r.table.Keys(ctx)
		if err != nil {
			return nil, nil, err
		}
		keys = all
	}
	keys = uniqueSorted(keys)
	r.report.Total = len(keys)

	var releases []func()
	releaseAll := func() {
		for i := len(releases) - 1; i >= 0; i-- {
			releases[i]()
		}
	}

	fields := make([]field, 0, len(keys))
	for _, key := range keys {
		if lock {
			release, err := r.a.lockField(ctx, key)
			if err == ErrFieldBusy {
				r.fail(key, err)
				continue
			}
			if err != nil {
				releaseAll()
				return nil, nil, err
			}
			releases = append(releases, release)
		}

		raw, err := r.table.GetText(ctx, key)
		if err != nil {
			r.fail(key, err)
			continue
		}
		meta, err := r.table.GetOriginal(ctx, key)
		if err != nil {
			r.fail(key, err)
			continue
		}
		fields = append(fields, field{key: key, raw: raw, meta: meta})
	}

	return fields, releaseAll, nil
}

func (a *Annotator) lockField(ctx context.Context, key string) (func(), error) {
	if a.busy == BusyReject {
		if release, ok := a.locks.TryAcquire(key); ok {
			return release, nil
		}
		return nil, ErrFieldBusy
	}
	return a.locks.Acquire(ctx, key)
}

func (r *run) translate(ctx context.Context, fields []field) {
	nodes := make([]TextNode, 0, len(fields))
	for _, f := range fields {
		node := NewTextNode(f.key, f.raw, "field")
		if strings.TrimSpace(node.Text) == "" || r.a.isSourceLang() {
			r.skip(f.key)
			continue
		}
		nodes = append(nodes, node)
	}
	if len(nodes) == 0 {
		return
	}

	res := r.a.translateNodes(ctx, nodes, r.log)
	for _, node := range nodes {
		tr, ok := res.translations[node.Hash]
		if !ok {
			r.fail(node.ID, res.errFor(node.Hash))
			continue
		}
		if err := r.write(ctx, node.ID, Compose(node.Text, tr, r.a.placement), node.Text); err != nil {
			r.fail(node.ID, err)
			continue
		}
		if res.cached[node.Hash] {
			r.report.Cached++
			r.a.metrics.recordField(r.report.Action, "cached")
		} else {
			r.report.Translated++
			r.a.metrics.recordField(r.report.Action, "translated")
		}
	}
}

func (r *run) restore(ctx context.Context, f field) {
	if !HasTranslation(f.raw) {
		if f.meta == "" {
			r.skip(f.key)
			return
		}
		// Already showing the original; drop the stale metadata.
		if err := r.table.SetOriginal(ctx, f.key, ""); err != nil {
			r.fail(f.key, err)
			return
		}
		r.done(&r.report.Restored, "restored")
		return
	}
	if err := r.write(ctx, f.key, ExtractOriginal(f.raw), ""); err != nil {
		r.fail(f.key, err)
		return
	}
	r.done(&r.report.Restored, "restored")
}

func (r *run) clearOriginal(ctx context.Context, f field) {
	if !HasTranslation(f.raw) {
		r.skip(f.key)
		return
	}
	if err := r.write(ctx, f.key, ExtractTranslationOnly(f.raw), ""); err != nil {
		r.fail(f.key, err)
		return
	}
	r.done(&r.report.Cleared, "cleared")
}

func (r *run) toggle(ctx context.Context, f field) {
	if !HasTranslation(f.raw) && f.meta == "" {
		r.skip(f.key)
		return
	}

	text, meta := ToggleMode(f.raw, f.meta, r.a.placement)
	if meta == "" && IsBilingual(f.raw) {
		// Keep the original so the field can be toggled back.
		meta = text
	}

	// Going back to bilingual: prefer the cached translation of the stored
	// original over treating the current text as the translation.
	if !IsBilingual(f.raw) && f.meta != "" && r.a.cache != nil {
		if tr, ok := r.a.cache.Get(CacheKey(HashText(f.meta), r.a.targetLang)); ok {
			text = Compose(f.meta, tr, r.a.placement)
		}
	}

	if err := r.write(ctx, f.key, text, meta); err != nil {
		r.fail(f.key, err)
		return
	}
	r.done(&r.report.Toggled, "toggled")
}

// write stores the field text and then its metadata original.
func (r *run) write(ctx context.Context, key, text, original string) error {
	if err := r.table.SetText(ctx, key, text); err != nil {
		return err
	}
	return r.table.SetOriginal(ctx, key, original)
}

func (r *run) done(counter *int, outcome string) {
	*counter++
	r.a.metrics.recordField(r.report.Action, outcome)
}

func (r *run) skip(key string) {
	r.report.Skipped++
	r.a.metrics.recordField(r.report.Action, "skipped")
	r.log.WithField("key", key).Debug("field skipped")
}

func (r *run) fail(key string, err error) {
	r.report.Failed++
	r.report.Errors = append(r.report.Errors, &FieldError{Key: key, Action: r.report.Action, Cause: err})
	r.a.metrics.recordField(r.report.Action, "failed")
	r.log.WithError(err).WithField("key", key).Warn("field left untouched")
}

// batchResult collects translations by text hash.
type batchResult struct {
	translations map[string]string
	cached       map[string]bool
	errs         map[string]error
}

func (b *batchResult) errFor(hash string) error {
	if err := b.errs[hash]; err != nil {
		return err
	}
	return ErrNoProvider
}

// translateNodes resolves a translation for every distinct hash, first from
// the cache, then from the provider in batches of batchSize with at most
// concurrency requests in flight. A failed batch only affects its own hashes.
func (a *Annotator) translateNodes(ctx context.Context, nodes []TextNode, log *logrus.Entry) *batchResult {
	found, misses := ParallelCacheLookup(a.cache, nodes, a.targetLang)
	res := &batchResult{
		translations: found,
		cached:       make(map[string]bool, len(found)),
		errs:         make(map[string]error),
	}
	for hash := range found {
		res.cached[hash] = true
	}
	if a.cache != nil {
		for range found {
			a.metrics.recordCache(true)
		}
		for range misses {
			a.metrics.recordCache(false)
		}
	}

	if len(misses) == 0 {
		return res
	}
	if a.provider == nil {
		for _, node := range misses {
			res.errs[node.Hash] = ErrNoProvider
		}
		return res
	}

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = semaphore.NewWeighted(int64(a.concurrency))
	)

	for _, batch := range chunkNodes(misses, a.batchSize) {
		if err := sem.Acquire(ctx, 1); err != nil {
			err = &TranslationError{Message: "batch not started", Cause: err}
			mu.Lock()
			for _, node := range batch {
				res.errs[node.Hash] = err
			}
			mu.Unlock()
			continue
		}

		wg.Add(1)
		go func(batch []TextNode) {
			defer wg.Done()
			defer sem.Release(1)

			results, err := a.translateBatch(ctx, batch)
			if err != nil {
				log.WithError(err).WithField("count", len(batch)).Warn("translation batch failed")
			}

			mu.Lock()
			defer mu.Unlock()
			for i, node := range batch {
				if err != nil {
					res.errs[node.Hash] = err
					continue
				}
				res.translations[node.Hash] = results[i]
				if a.cache != nil {
					if cerr := a.cache.Set(CacheKey(node.Hash, a.targetLang), results[i]); cerr != nil {
						log.WithError(cerr).Warn("cache write failed")
					}
				}
			}
		}(batch)
	}
	wg.Wait()

	return res
}

func (a *Annotator) translateBatch(ctx context.Context, batch []TextNode) ([]string, error) {
	texts := make([]string, len(batch))
	textContexts := make([]string, len(batch))
	for i, node := range batch {
		texts[i] = node.Text
		textContexts[i] = node.Context
	}

	start := time.Now()
	results, err := a.provider.Translate(ctx, TranslateRequest{
		Texts:         texts,
		TargetLang:    a.targetLang,
		SourceLang:    a.sourceLang,
		ExcludedTerms: a.excludedTerms,
		Context:       a.context,
		TextContexts:  textContexts,
		Glossary:      a.glossary,
		Style:         a.style,
	})
	if err == nil && len(results) != len(texts) {
		err = &CountMismatchError{Expected: len(texts), Got: len(results)}
	}
	a.metrics.recordProvider(err, start)
	if err != nil {
		return nil, err
	}

	for i := range results {
		results[i] = strings.TrimSpace(Visible(results[i]))
	}
	return results, nil
}

func chunkNodes(nodes []TextNode, size int) [][]TextNode {
	var chunks [][]TextNode
	for len(nodes) > size {
		chunks = append(chunks, nodes[:size])
		nodes = nodes[size:]
	}
	if len(nodes) > 0 {
		chunks = append(chunks, nodes)
	}
	return chunks
}

// isSourceLang checks if target matches source (no translation needed).
func (a *Annotator) isSourceLang() bool {
	return normalizeBaseLang(a.targetLang) == normalizeBaseLang(a.sourceLang)
}

// TargetLang returns the target language.
func (a *Annotator) TargetLang() string {
	return a.targetLang
}

// SourceLang returns the source language.
func (a *Annotator) SourceLang() string {
	return a.sourceLang
}

// Placement returns where translations are placed.
func (a *Annotator) Placement() Placement {
	return a.placement
}

// IsSourceLang checks if the target language matches the source language.
// When true, translation is skipped.
func (a *Annotator) IsSourceLang() bool {
	return a.isSourceLang()
}

// IsRTL returns true if the target language uses right-to-left text direction.
func (a *Annotator) IsRTL() bool {
	return IsRTL(a.targetLang)
}

// Glossary returns the glossary of preferred translations.
func (a *Annotator) Glossary() map[string]string {
	return a.glossary
}

// Style returns the translation style.
func (a *Annotator) Style() TranslationStyle {
	return a.style
}

// normalizeBaseLang extracts the base language code (e.g., "en" from "en_US").
func normalizeBaseLang(lang string) string {
	base, _, _ := strings.Cut(strings.ReplaceAll(lang, "-", "_"), "_")
	return strings.ToLower(base)
}
