// Package builder turns a tree of source images into a catalog of
// responsive assets.
package builder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/leeforge/assetpipe/concurrency"
	apperrors "github.com/leeforge/assetpipe/errors"
	"github.com/leeforge/assetpipe/logging"
	"github.com/leeforge/assetpipe/media/asset"
	"github.com/leeforge/assetpipe/media/cache"
	"github.com/leeforge/assetpipe/media/catalog"
	"github.com/leeforge/assetpipe/media/processor"
	"github.com/leeforge/assetpipe/media/storage"
	"github.com/leeforge/assetpipe/metrics"
)

// Driver runs builds. One Driver may run several builds in sequence, as
// watch mode does, but not concurrently.
type Driver struct {
	opts    Options
	store   storage.Provider
	log     logging.Logger
	metrics *metrics.Collector
	pool    *concurrency.Pool
	ignore  []string
}

// New creates a Driver. A nil logger or collector is replaced by a no-op
// logger or a private collector.
func New(opts Options, store storage.Provider, logger logging.Logger, collector *metrics.Collector) (*Driver, error) {
	if opts.SourceDir == "" {
		return nil, apperrors.NewValidation("source directory is required").WithCode(apperrors.CodeInvalidConfig)
	}
	if store == nil {
		return nil, apperrors.NewValidation("output store is required").WithCode(apperrors.CodeInvalidConfig)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if collector == nil {
		collector = metrics.NewCollector()
	}

	opts.Placeholders = normalizeKeys(opts.Placeholders)
	opts.Alt = normalizeKeys(opts.Alt)

	ignore := make([]string, 0, len(opts.Ignore))
	for _, dir := range opts.Ignore {
		if dir == "" {
			continue
		}
		abs, err := filepath.Abs(dir)
		if err != nil {
			return nil, apperrors.NewIO(dir, err).WithCode(apperrors.CodeInvalidConfig)
		}
		ignore = append(ignore, abs)
	}

	return &Driver{
		opts:    opts,
		store:   store,
		log:     logger.Named("builder"),
		metrics: collector,
		pool:    concurrency.NewPool(opts.Workers),
		ignore:  ignore,
	}, nil
}

// Metrics returns the collector the driver records into.
func (d *Driver) Metrics() *metrics.Collector {
	return d.metrics
}

// imageWork is the per-image state shared by its tasks. Each task writes
// only its own slot.
type imageWork struct {
	src         *processor.SourceImage
	kind        processor.PlaceholderKind
	paths       []asset.VariantPath
	variants    []asset.ResizedVariant
	placeholder string
	started     atomic.Int64
}

// candidate is a source whose header identifies it as an image.
type candidate struct {
	file   sourceFile
	width  uint32
	height uint32
}

// Build scans the source tree and builds every image it finds. Skippable
// problems are logged; the first fatal one is returned.
//
// Headers are read for every source before any output is written, so name
// collisions and images too narrow for the ladder fail the build with the
// output store untouched. Pixels are then decoded a few images at a time.
func (d *Driver) Build(ctx context.Context) (*catalog.Catalog, error) {
	start := time.Now()
	d.metrics.Reset()
	defer d.metrics.ObserveDuration(metrics.BuildDuration, start, nil)
	d.metrics.SetGauge(metrics.Workers, float64(d.pool.Size()), nil)

	files, err := scan(ctx, d.opts.SourceDir, d.ignore)
	if err != nil {
		return nil, apperrors.NewIO(d.opts.SourceDir, err).WithMessage("failed to scan source directory")
	}

	required := d.opts.requiredSet()
	if err := checkRequired(files, required); err != nil {
		return nil, err
	}

	candidates, err := d.inspectAll(ctx, files, required)
	if err != nil {
		return nil, err
	}
	if err := checkCollisions(candidates); err != nil {
		return nil, err
	}
	for _, c := range candidates {
		// The stored orientation may be rotated on decode, so only an image
		// narrow both ways is rejected here. plan checks the displayed width.
		if max(c.width, c.height) < processor.LadderMin {
			return nil, apperrors.NewNoVariants(c.file.rel, c.width)
		}
	}

	buildCache, err := cache.New(ctx, d.store)
	if err != nil {
		return nil, err
	}

	work, err := d.buildBatches(ctx, candidates, required, buildCache)
	if err != nil {
		return nil, err
	}

	cat, err := d.assemble(work)
	if err != nil {
		return nil, err
	}
	d.metrics.SetGauge(metrics.CatalogImages, float64(cat.Len()), nil)

	stats := buildCache.Stats()
	d.log.Info("build finished",
		zap.Int("images", cat.Len()),
		zap.Int("pairs", len(cat.Pairs())),
		zap.Int64("cache_hits", stats.Hits),
		zap.Int64("cache_misses", stats.Misses),
		logging.Elapsed(time.Since(start)),
	)
	d.log.Debug("build metrics", zap.String("summary", d.metrics.Summary()))
	return cat, nil
}

// checkRequired reports every required source missing from files.
func checkRequired(files []sourceFile, required map[string]struct{}) error {
	found := make(map[string]struct{}, len(files))
	for _, f := range files {
		found[f.rel] = struct{}{}
	}

	missing := make([]string, 0)
	for rel := range required {
		if _, ok := found[rel]; !ok {
			missing = append(missing, rel)
		}
	}
	sort.Strings(missing)

	errs := apperrors.NewErrorChain()
	for _, rel := range missing {
		errs.Add(apperrors.NewNotFound(rel))
	}
	return errs.Err()
}

// checkCollisions fails when two images share an identifier. Outputs are
// named after the source path minus its extension, so two sources whose
// outputs would overwrite each other always share an identifier too.
func checkCollisions(candidates []candidate) error {
	seen := make(map[string]string, len(candidates))
	for _, c := range candidates {
		id := asset.Identifier(asset.Stem(c.file.rel))
		if prev, ok := seen[id]; ok {
			return apperrors.NewConflict(id, c.file.rel).WithDetail("existing", prev)
		}
		seen[id] = c.file.rel
	}
	return nil
}

// inspectAll reads the header of every file for its type and stored
// dimensions. Non-images and unreadable headers are dropped under the same
// rules as a failed decode.
func (d *Driver) inspectAll(ctx context.Context, files []sourceFile, required map[string]struct{}) ([]candidate, error) {
	found := make([]*candidate, len(files))
	jobs := make([]concurrency.Job, len(files))
	rels := make([]string, len(files))
	for i, f := range files {
		index, f := i, f
		rels[i] = f.rel
		jobs[i] = func(ctx context.Context) error {
			c, err := d.inspect(f, required)
			found[index] = c
			return err
		}
	}

	if err := d.settle(ctx, rels, d.pool.Collect(ctx, jobs), required); err != nil {
		return nil, err
	}

	candidates := make([]candidate, 0, len(files))
	for _, c := range found {
		if c != nil {
			candidates = append(candidates, *c)
		}
	}
	return candidates, nil
}

// inspect returns nil, nil for a file that is not an image.
func (d *Driver) inspect(f sourceFile, required map[string]struct{}) (*candidate, error) {
	file, err := os.Open(f.abs)
	if err != nil {
		return nil, apperrors.NewIO(f.rel, err)
	}
	defer file.Close()

	head := make([]byte, processor.SniffLen)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, apperrors.NewIO(f.rel, err)
	}
	head = head[:n]

	if mime := processor.DetectMIME(head); !processor.IsImageMIME(mime) {
		if _, ok := required[f.rel]; ok {
			return nil, apperrors.NewDecode(f.rel, apperrors.NewValidation("not an image: "+mime))
		}
		d.log.Debug("skipping non-image file", logging.Path(f.rel), logging.MIME(mime))
		d.metrics.IncCounter(metrics.ImagesSkipped, map[string]string{"reason": "not_image"})
		return nil, nil
	}

	width, height, _, err := processor.DecodeConfig(io.MultiReader(bytes.NewReader(head), file))
	if err != nil {
		return nil, apperrors.NewDecode(f.rel, err)
	}
	if width == 0 || height == 0 {
		return nil, apperrors.NewDecode(f.rel, apperrors.NewValidation("image has no pixels"))
	}
	return &candidate{file: f, width: width, height: height}, nil
}

// settle applies the skip rules to per-file errors: a failure on a required
// source is fatal, an undecodable image is skipped with a warning, and any
// other error is fatal.
func (d *Driver) settle(ctx context.Context, rels []string, errs []error, required map[string]struct{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for i, err := range errs {
		if err == nil {
			continue
		}
		rel := rels[i]
		if _, ok := required[rel]; ok {
			return err
		}
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) && appErr.Type == apperrors.ErrorTypeDecode {
			d.log.Warn("skipping undecodable image", logging.Path(rel), zap.Error(err))
			d.metrics.IncCounter(metrics.ImagesSkipped, map[string]string{"reason": "decode"})
			continue
		}
		return err
	}
	return nil
}

// buildBatches decodes and builds the candidates in groups of twice the
// pool size, releasing each group's pixels before the next is decoded.
func (d *Driver) buildBatches(ctx context.Context, candidates []candidate, required map[string]struct{}, buildCache *cache.BuildCache) ([]*imageWork, error) {
	size := 2 * d.pool.Size()
	progress := concurrency.NewProgress(0)

	var work []*imageWork
	for start := 0; start < len(candidates); start += size {
		batch := candidates[start:min(start+size, len(candidates))]
		sources, err := d.decodeBatch(ctx, batch, required)
		if err != nil {
			return nil, err
		}

		batchWork, err := d.plan(sources)
		if err != nil {
			return nil, err
		}

		jobs := d.tasks(batchWork, buildCache)
		progress.Expect(len(jobs))
		if err := d.pool.Run(ctx, progress.Track(jobs, d.logProgress)); err != nil {
			return nil, err
		}

		for _, w := range batchWork {
			w.src = w.src.WithoutPixels()
		}
		work = append(work, batchWork...)
	}
	return work, nil
}

// decodeBatch decodes one group of candidates. Skipped images come back as
// nil slots.
func (d *Driver) decodeBatch(ctx context.Context, batch []candidate, required map[string]struct{}) ([]*processor.SourceImage, error) {
	sources := make([]*processor.SourceImage, len(batch))
	jobs := make([]concurrency.Job, len(batch))
	rels := make([]string, len(batch))
	for i, c := range batch {
		index, f := i, c.file
		rels[i] = f.rel
		jobs[i] = func(ctx context.Context) error {
			begin := time.Now()
			data, err := os.ReadFile(f.abs)
			if err != nil {
				return apperrors.NewIO(f.rel, err)
			}
			src, err := processor.Decode(f.abs, f.rel, data)
			if err != nil {
				return err
			}
			sources[index] = src
			d.metrics.ObserveDuration(metrics.ImageDuration, begin, map[string]string{"phase": "decode"})
			return nil
		}
	}

	if err := d.settle(ctx, rels, d.pool.Collect(ctx, jobs), required); err != nil {
		return nil, err
	}
	return sources, nil
}

// plan lays out the variant slots of every decoded image. An image too
// narrow for the ladder is fatal: every built image must have a src.
func (d *Driver) plan(sources []*processor.SourceImage) ([]*imageWork, error) {
	var work []*imageWork
	for _, src := range sources {
		if src == nil {
			continue
		}
		widths := processor.AvailableWidths(src.Width)
		if len(widths) == 0 {
			return nil, apperrors.NewNoVariants(src.RelPath, src.Width)
		}
		paths := asset.VariantPaths(src.RelPath, widths, d.opts.URLPrefix)
		work = append(work, &imageWork{
			src:      src,
			kind:     d.opts.placeholderFor(src.RelPath),
			paths:    paths,
			variants: make([]asset.ResizedVariant, len(paths)),
		})
	}
	return work, nil
}

// tasks flattens every image into one job per variant plus one for its
// placeholder, so a single pool bounds all CPU work.
func (d *Driver) tasks(work []*imageWork, buildCache *cache.BuildCache) []concurrency.Job {
	var jobs []concurrency.Job
	for _, w := range work {
		w := w
		for j := range w.paths {
			j := j
			jobs = append(jobs, func(ctx context.Context) error {
				ctx, cancel := d.imageContext(ctx, w)
				defer cancel()
				return d.buildVariant(ctx, w, j, buildCache)
			})
		}
		jobs = append(jobs, func(ctx context.Context) error {
			ctx, cancel := d.imageContext(ctx, w)
			defer cancel()
			return d.buildPlaceholder(ctx, w)
		})
	}
	return jobs
}

func (d *Driver) logProgress(p *concurrency.Progress) {
	completed, failed, total := p.Snapshot()
	d.log.Info("build progress",
		zap.Int64("completed", completed),
		zap.Int64("failed", failed),
		zap.Int64("total", total),
		zap.String("percent", fmt.Sprintf("%.0f%%", p.Percentage())),
	)
}

// imageContext applies the per-image budget, counted from the first task
// of the image that starts.
func (d *Driver) imageContext(ctx context.Context, w *imageWork) (context.Context, context.CancelFunc) {
	if d.opts.ImageTimeout <= 0 {
		return ctx, func() {}
	}
	now := time.Now().UnixNano()
	w.started.CompareAndSwap(0, now)
	deadline := time.Unix(0, w.started.Load()).Add(d.opts.ImageTimeout)
	return context.WithDeadline(ctx, deadline)
}

func (d *Driver) buildVariant(ctx context.Context, w *imageWork, j int, buildCache *cache.BuildCache) error {
	path := w.paths[j]
	rel := w.src.RelPath
	if err := d.checkBudget(ctx, rel); err != nil {
		return err
	}

	data, hit, err := buildCache.Materialize(ctx, path.RelPath, func() ([]byte, error) {
		resized, err := processor.ResizeToWidth(w.src.Image, path.Width)
		if err != nil {
			return nil, apperrors.NewEncode(rel, err).WithDetail("width", path.Width)
		}
		if err := d.checkBudget(ctx, rel); err != nil {
			return nil, err
		}
		data, err := processor.EncodeJPEG(resized, d.opts.quality())
		if err != nil {
			return nil, apperrors.NewEncode(rel, err).WithDetail("width", path.Width)
		}
		return data, d.checkBudget(ctx, rel)
	})
	if err != nil {
		var appErr *apperrors.AppError
		if !errors.As(err, &appErr) && errors.Is(err, context.DeadlineExceeded) {
			return apperrors.NewTimeout(rel, err)
		}
		return err
	}

	height := processor.ScaledHeight(w.src.Width, w.src.Height, path.Width)
	w.variants[j] = asset.NewResizedVariant(path, height, data, hit)

	d.metrics.RecordCacheHit(hit, len(data))
	d.metrics.IncCounter(metrics.VariantsTotal, nil)
	d.log.ForImage(w.src.RelPath).Debug("variant ready",
		zap.String("output", path.RelPath),
		logging.Width(path.Width),
		logging.CacheHit(hit),
	)
	return nil
}

func (d *Driver) buildPlaceholder(ctx context.Context, w *imageWork) error {
	rel := w.src.RelPath
	if err := d.checkBudget(ctx, rel); err != nil {
		return err
	}

	value, err := processor.Generate(w.src.Image, w.kind, d.opts.quality())
	if err != nil {
		return apperrors.NewEncode(rel, err).WithMessage("failed to generate placeholder")
	}
	if err := d.checkBudget(ctx, rel); err != nil {
		return err
	}

	w.placeholder = value
	d.metrics.RecordPlaceholder(string(w.kind))
	return nil
}

// checkBudget turns an expired per-image deadline into a timeout error and
// passes any other cancellation through.
func (d *Driver) checkBudget(ctx context.Context, rel string) error {
	err := ctx.Err()
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewTimeout(rel, err)
	}
	return err
}

// assemble builds the catalog in scan order, then the configured pairs.
func (d *Driver) assemble(work []*imageWork) (*catalog.Catalog, error) {
	cat := catalog.New(catalog.BuildTime)
	for _, w := range work {
		placeholder := asset.NewLQIP(w.placeholder)
		if w.kind == processor.PlaceholderColor {
			placeholder = asset.NewColor(w.placeholder)
		}

		img, err := asset.NewBuiltImage(w.src, w.variants, placeholder, d.opts.Alt[w.src.RelPath])
		if err != nil {
			return nil, err
		}
		if err := cat.AddImage(img); err != nil {
			return nil, err
		}

		d.metrics.IncCounter(metrics.ImagesBuilt, nil)
		d.log.ForImage(img.RelPath()).Info("image built",
			zap.String("id", img.ID()),
			logging.Width(img.Width()),
			zap.Int("variants", len(img.Variants())),
			zap.String("placeholder", string(w.kind)),
		)
	}

	for _, p := range d.opts.Pairs {
		light, ok := cat.ImageByPath(normalizeRel(p.Light))
		if !ok {
			return nil, apperrors.NewNotFound(p.Light)
		}
		dark, ok := cat.ImageByPath(normalizeRel(p.Dark))
		if !ok {
			return nil, apperrors.NewNotFound(p.Dark)
		}
		pair, err := asset.NewLightDark(light, dark, p.Alt)
		if err != nil {
			return nil, err
		}
		if err := cat.AddLightDark(pair); err != nil {
			return nil, err
		}
	}
	return cat, nil
}
