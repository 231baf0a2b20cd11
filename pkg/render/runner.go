package render

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/cardtree/pkg/cache"
	"github.com/matzehuels/cardtree/pkg/canvas"
	errs "github.com/matzehuels/cardtree/pkg/errors"
)

// ArtifactTTL is how long rendered artifacts stay cached.
const ArtifactTTL = 7 * 24 * time.Hour

// Runner renders documents through an artifact cache.
//
// It holds no per-render state, so one Runner may serve concurrent renders.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner. A nil cache disables caching, a nil keyer
// uses cache.DefaultKeyer and a nil logger uses log.Default().
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// Result is a rendered artifact.
type Result struct {
	Data     []byte
	Format   string
	DocHash  string
	CacheHit bool
	Duration time.Duration
}

// Render renders doc in opts.Format, serving repeated renders of an
// unchanged document from the cache.
func (r *Runner) Render(ctx context.Context, doc *canvas.Document, opts Options) (*Result, error) {
	opts.setDefaults()
	if !ValidFormats[opts.Format] {
		return nil, errs.New(errs.ErrCodeUnsupported, "unsupported format %q", opts.Format)
	}

	start := time.Now()
	data, err := canvas.MarshalDocument(doc)
	if err != nil {
		return nil, fmt.Errorf("hash document: %w", err)
	}
	res := &Result{Format: opts.Format, DocHash: cache.Hash(data)}
	key := r.Keyer.RenderKey(res.DocHash, cache.RenderKeyOpts{
		Format:        opts.Format,
		ShowHidden:    opts.ShowHidden,
		IncludeFields: opts.IncludeFields,
	})
	if opts.Scale != DefaultScale {
		key = fmt.Sprintf("%s@%g", key, opts.Scale)
	}

	if cached, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
		res.Data, res.CacheHit = cached, true
		res.Duration = time.Since(start)
		r.Logger.Debug("render cache hit", "format", opts.Format, "hash", res.DocHash[:12])
		return res, nil
	}

	dot := ToDOT(doc, opts)
	switch opts.Format {
	case FormatDOT:
		res.Data = []byte(dot)
	case FormatSVG:
		res.Data, err = RenderSVG(ctx, dot)
	case FormatPNG:
		res.Data, err = RenderPNG(ctx, dot)
	}
	if err != nil {
		return nil, err
	}

	if err := r.Cache.Set(ctx, key, res.Data, ArtifactTTL); err != nil {
		r.Logger.Warn("cache render", "err", err)
	}
	res.Duration = time.Since(start)
	r.Logger.Info("rendered canvas",
		"format", opts.Format,
		"nodes", doc.NodeCount(),
		"bytes", len(res.Data),
		"duration", res.Duration)
	return res, nil
}
