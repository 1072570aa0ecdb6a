package mathtex

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"strings"
	"sync/atomic"
	"time"

	"github.com/wudi/mathtex/cache"
	"github.com/wudi/mathtex/config"
	"github.com/wudi/mathtex/mathjax"
	"github.com/wudi/mathtex/mathml"
	"github.com/wudi/mathtex/observability"
	"github.com/wudi/mathtex/scripting"
	"github.com/wudi/mathtex/svgraster"
)

// Cache key kinds.
const (
	kindVector = "svg"
	kindBoth   = "svg+mml"
)

// Option configures a Converter.
type Option func(*Converter)

// WithLogger sets the logger shared by the converter and its engine.
func WithLogger(l observability.Logger) Option {
	return func(c *Converter) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithTracer sets the tracer shared by the converter and its engine.
func WithTracer(t observability.Tracer) Option {
	return func(c *Converter) {
		if t != nil {
			c.tracer = t
		}
	}
}

// WithScriptSource overrides the bundle and shim paths from the config.
func WithScriptSource(src mathjax.ScriptSource) Option {
	return func(c *Converter) { c.src = src }
}

// WithScriptEngine replaces the script runtime factory.
func WithScriptEngine(factory func() scripting.Engine) Option {
	return func(c *Converter) { c.factory = factory }
}

// WithStore overrides the cache from the config. The caller keeps ownership
// and must close the store.
func WithStore(s cache.Store) Option {
	return func(c *Converter) { c.store = s }
}

// Converter turns formulas into SVG, MathML and raster images.
type Converter struct {
	cfg      config.Config
	engine   *mathjax.Engine
	src      mathjax.ScriptSource
	factory  func() scripting.Engine
	store    cache.Store
	ownStore bool
	native   *mathml.Converter
	defaults mathjax.Options
	spec     svgraster.Spec
	format   svgraster.Format
	timeout  time.Duration
	logger   observability.Logger
	tracer   observability.Tracer

	// unloaded is set by UnloadEngine and cleared by Load. While set,
	// conversions do not auto-load.
	unloaded atomic.Bool
	hits     atomic.Int64
	misses   atomic.Int64
}

// NewConverter validates cfg and builds an unloaded converter. The engine
// loads on the first conversion when cfg.Engine.AutoLoad is set; otherwise
// Load must be called first. After UnloadEngine, only an explicit Load
// brings the engine back.
func NewConverter(cfg config.Config, opts ...Option) (*Converter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	timeout, err := cfg.Engine.TimeoutDuration()
	if err != nil {
		return nil, err
	}
	spec, err := rasterSpec(cfg.Render)
	if err != nil {
		return nil, err
	}
	format, err := svgraster.ParseFormat(cfg.Render.Format)
	if err != nil {
		return nil, err
	}

	c := &Converter{
		cfg:     cfg,
		spec:    spec,
		format:  format,
		timeout: timeout,
		logger:  observability.NopLogger{},
		tracer:  observability.NopTracer(),
		defaults: mathjax.Options{
			Display: mathjax.Bool(!cfg.Engine.Inline),
			Em:      cfg.Engine.Em,
			Family:  cfg.Engine.Family,
		},
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.src == nil {
		c.src = mathjax.FileScripts{BundlePath: cfg.Engine.BundlePath, DOMShimPath: cfg.Engine.DOMShimPath}
	}
	engineOpts := []mathjax.EngineOption{
		mathjax.WithLogger(c.logger.With(observability.String("component", "mathjax"))),
		mathjax.WithTracer(c.tracer),
	}
	if c.factory != nil {
		engineOpts = append(engineOpts, mathjax.WithScriptEngine(c.factory))
	}
	c.engine = mathjax.New(c.src, engineOpts...)

	if cfg.Engine.Markup == config.MarkupNative {
		c.native = mathml.New()
	}
	if c.store == nil {
		store, err := openStore(cfg.Cache)
		if err != nil {
			return nil, err
		}
		c.store, c.ownStore = store, store != nil
	}
	return c, nil
}

func rasterSpec(r config.RenderConfig) (svgraster.Spec, error) {
	spec := svgraster.Spec{Scale: r.Scale, DPI: r.DPI}
	if r.Background != "" {
		bg, err := svgraster.ParseColor(r.Background)
		if err != nil {
			return spec, err
		}
		spec.Background = bg
	}
	if r.Foreground != "" {
		fg, err := svgraster.ParseColor(r.Foreground)
		if err != nil {
			return spec, err
		}
		spec.Foreground = fg
	}
	return spec, nil
}

func openStore(cfg config.CacheConfig) (cache.Store, error) {
	switch cfg.Kind {
	case config.CacheMemory:
		return cache.NewMemory(cfg.Size), nil
	case config.CacheSQLite:
		store, err := cache.OpenSQLite(context.Background(), cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("open cache: %w", err)
		}
		return store, nil
	}
	return nil, nil
}

// Engine exposes the underlying engine session.
func (c *Converter) Engine() *mathjax.Engine { return c.engine }

// Format is the image format configured for encoded output.
func (c *Converter) Format() svgraster.Format { return c.format }

// Load starts the engine. It is a no-op when the engine is ready.
func (c *Converter) Load(ctx context.Context) error {
	if err := c.engine.Load(ctx); err != nil {
		return err
	}
	c.unloaded.Store(false)
	return nil
}

// UnloadEngine releases the engine. Conversions then fail with
// ErrEngineNotReady until Load is called.
func (c *Converter) UnloadEngine() error {
	c.unloaded.Store(true)
	return c.engine.Unload()
}

func (c *Converter) autoLoad() bool {
	return c.cfg.Engine.AutoLoad && !c.unloaded.Load()
}

// Close unloads the engine and closes a cache opened from the config.
func (c *Converter) Close() error {
	err := c.engine.Unload()
	if c.ownStore {
		err = errors.Join(err, c.store.Close())
	}
	return err
}

// CacheStats returns the number of cache hits and misses so far.
func (c *Converter) CacheStats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// ConvertFormulaToVector typesets text into an SVG document. Options are
// applied after the configured defaults, later names overriding earlier
// ones.
func (c *Converter) ConvertFormulaToVector(ctx context.Context, text string, opts ...mathjax.Option) (string, error) {
	entry, err := c.convert(ctx, kindVector, text, opts)
	if err != nil {
		return "", err
	}
	return entry.SVG, nil
}

// ConvertFormulaToVectorAndMarkup returns the SVG and MathML documents for
// text. Markup is produced only when the vector conversion succeeds.
func (c *Converter) ConvertFormulaToVectorAndMarkup(ctx context.Context, text string, opts ...mathjax.Option) (string, string, error) {
	entry, err := c.convert(ctx, kindBoth, text, opts)
	if err != nil {
		return "", "", err
	}
	return entry.SVG, entry.MathML, nil
}

// RenderOptions controls RenderFormulaToImage. Zero fields take the
// configured render defaults.
type RenderOptions struct {
	Scale      float64
	DPI        int
	Background color.Color
	Foreground color.Color
	Options    []mathjax.Option
}

func (c *Converter) rasterSpec(o RenderOptions) svgraster.Spec {
	spec := c.spec
	if o.Scale != 0 {
		spec.Scale = o.Scale
	}
	if o.DPI != 0 {
		spec.DPI = o.DPI
	}
	if o.Background != nil {
		spec.Background = o.Background
	}
	if o.Foreground != nil {
		spec.Foreground = o.Foreground
	}
	return spec
}

// RenderFormulaToImage converts text to SVG and rasterizes it. It returns
// the pixel buffer and the SVG it was drawn from. A conversion error skips
// rasterization.
func (c *Converter) RenderFormulaToImage(ctx context.Context, text string, o RenderOptions) (*svgraster.PixelBuffer, string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, "", ErrEmptyFormula
	}
	spec := c.rasterSpec(o)
	if err := spec.Validate(); err != nil {
		return nil, "", err
	}
	svg, err := c.ConvertFormulaToVector(ctx, text, o.Options...)
	if err != nil {
		return nil, "", err
	}
	buf, err := c.rasterize(ctx, svg, spec)
	if err != nil {
		return nil, "", err
	}
	return buf, svg, nil
}

func (c *Converter) rasterize(ctx context.Context, svg string, spec svgraster.Spec) (*svgraster.PixelBuffer, error) {
	_, span := c.tracer.StartSpan(ctx, "mathtex.render")
	defer span.Finish()
	start := time.Now()

	buf, err := svgraster.Render(svg, spec)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	span.SetTag(observability.MetricRenderTime, time.Since(start))
	span.SetTag(observability.MetricRenderPixels, buf.Width()*buf.Height())
	c.logger.Debug("formula rasterized",
		observability.Int("width", buf.Width()),
		observability.Int("height", buf.Height()),
		observability.Int("dpi", buf.DPI),
		observability.Duration("elapsed", time.Since(start)))
	return buf, nil
}

func (c *Converter) request(text string, opts []mathjax.Option) mathjax.Request {
	return mathjax.Request{Formula: text, Options: c.defaults, Raw: opts}
}

func (c *Converter) convert(ctx context.Context, kind, text string, opts []mathjax.Option) (cache.Entry, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(text) == "" {
		return cache.Entry{}, ErrEmptyFormula
	}
	if !c.autoLoad() && !c.engine.Ready() {
		return cache.Entry{}, ErrEngineNotReady
	}

	req := c.request(text, opts)
	encoded, err := req.EncodedOptions()
	if err != nil {
		return cache.Entry{}, err
	}
	ctx, span := c.tracer.StartSpan(ctx, "mathtex.convert")
	defer span.Finish()

	key := cache.NewKey(kind+":"+c.cfg.Engine.Markup, text, encoded)
	entry, ok := c.lookup(ctx, key)
	span.SetTag(observability.MetricCacheHits, c.hits.Load())
	span.SetTag(observability.MetricCacheMisses, c.misses.Load())
	if ok {
		return entry, nil
	}

	if c.autoLoad() {
		if err := c.engine.Load(ctx); err != nil {
			span.SetError(err)
			return cache.Entry{}, err
		}
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	switch {
	case kind == kindVector:
		entry.SVG, err = c.engine.ConvertToVector(ctx, req)
	case c.native != nil:
		entry.SVG, err = c.engine.ConvertToVector(ctx, req)
		if err == nil {
			entry.MathML, err = c.native.Convert(text, displayStyle(req))
		}
	default:
		entry.SVG, entry.MathML, err = c.engine.ConvertBoth(ctx, req)
	}
	if err != nil {
		span.SetError(err)
		c.logger.Debug("conversion failed", observability.Error("error", err))
		return cache.Entry{}, err
	}
	c.remember(ctx, key, entry)
	return entry, nil
}

// displayStyle resolves the display flag the engine sees: the typed option,
// overridden by the last raw "display" option.
func displayStyle(req mathjax.Request) bool {
	display := req.Options.Display == nil || *req.Options.Display
	for _, o := range req.Raw {
		if o.Name == "display" {
			display = strings.TrimSpace(o.Value) != "false"
		}
	}
	return display
}

func (c *Converter) lookup(ctx context.Context, key cache.Key) (cache.Entry, bool) {
	if c.store == nil {
		return cache.Entry{}, false
	}
	entry, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn("cache lookup failed", observability.String("key", key.String()), observability.Error("error", err))
		return cache.Entry{}, false
	}
	if !ok {
		c.misses.Add(1)
		return cache.Entry{}, false
	}
	c.hits.Add(1)
	c.logger.Debug("cache hit", observability.String("key", key.String()))
	return entry, true
}

func (c *Converter) remember(ctx context.Context, key cache.Key, entry cache.Entry) {
	if c.store == nil {
		return
	}
	if err := c.store.Put(ctx, key, entry); err != nil {
		c.logger.Warn("cache store failed", observability.String("key", key.String()), observability.Error("error", err))
	}
}
