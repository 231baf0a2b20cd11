// Package cli implements the cardtree command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/cardtree/pkg/buildinfo"
	"github.com/matzehuels/cardtree/pkg/cache"
	"github.com/matzehuels/cardtree/pkg/canvas"
	"github.com/matzehuels/cardtree/pkg/canvas/mongostore"
	"github.com/matzehuels/cardtree/pkg/canvas/redisstore"
	"github.com/matzehuels/cardtree/pkg/cards"
	"github.com/matzehuels/cardtree/pkg/config"
	"github.com/matzehuels/cardtree/pkg/layout"
	"github.com/matzehuels/cardtree/pkg/render"
)

// appName is the application name used for directories and display.
const appName = "cardtree"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	backend    string
	canvasPath string
	cfg        config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level), cfg: config.Default()}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "cardtree lays out card trees on a canvas",
		Long: `cardtree keeps a canvas of cards connected into trees and lays each tree
out so that subtrees never overlap and stay centered under their parents.

The canvas lives in a JSON file by default, or in Redis or MongoDB.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.loadConfig()
		},
	}
	root.SetVersionTemplate(buildinfo.Template())

	root.PersistentFlags().StringVar(&c.configPath, "config", config.DefaultPath(), "config file")
	root.PersistentFlags().StringVar(&c.backend, "backend", "", "canvas store: file, redis, mongo (default from config)")
	root.PersistentFlags().StringVarP(&c.canvasPath, "canvas", "f", "", "canvas file for the file backend (default from config)")

	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.cascadeCommand())
	root.AddCommand(c.collapseCommand())
	root.AddCommand(c.expandCommand())
	root.AddCommand(c.addCommand())
	root.AddCommand(c.setCommand())
	root.AddCommand(c.validateCommand())
	root.AddCommand(c.treeCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads the config file and applies flag overrides.
func (c *CLI) loadConfig() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if c.backend != "" {
		cfg.Store.Backend = c.backend
	}
	if c.canvasPath != "" {
		cfg.Store.Path = c.canvasPath
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	c.cfg = cfg
	c.Logger.Debug("config loaded", "path", c.configPath, "backend", cfg.Store.Backend)
	return nil
}

// =============================================================================
// Store & Engine Factory
// =============================================================================

// session is an open canvas with the engine and editor driving it.
type session struct {
	store  canvas.Store
	engine *layout.Engine
	editor *cards.Editor
}

// save persists buffered writes. Only the file backend buffers.
func (s *session) save(ctx context.Context) error {
	if fs, ok := s.store.(*canvas.FileStore); ok {
		return fs.Flush(ctx)
	}
	return nil
}

func (s *session) Close() error { return s.store.Close() }

// openStore opens the configured canvas store.
func (c *CLI) openStore(ctx context.Context) (canvas.Store, error) {
	st := c.cfg.Store
	switch st.Backend {
	case config.BackendRedis:
		return redisstore.Open(ctx, st.RedisAddr, st.RedisPrefix)
	case config.BackendMongo:
		return mongostore.Open(ctx, st.MongoURI, st.MongoDatabase)
	default:
		return canvas.NewFileStore(st.Path)
	}
}

// openSession opens the canvas and wires the layout engine to it. opts are
// applied after the configured margin and logger.
func (c *CLI) openSession(ctx context.Context, opts ...layout.Option) (*session, error) {
	store, err := c.openStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("open %s canvas: %w", c.cfg.Store.Backend, err)
	}
	eng := layout.New(store, append([]layout.Option{
		layout.WithMargin(c.cfg.Layout.Margin()),
		layout.WithLogger(c.Logger),
	}, opts...)...)
	return &session{
		store:  store,
		engine: eng,
		editor: cards.NewEditor(eng, cards.WithLogger(c.Logger)),
	}, nil
}

// =============================================================================
// Render Factory
// =============================================================================

// newRenderer creates a render runner. Redis canvases share a Redis render
// cache; everything else caches under the user cache directory.
func (c *CLI) newRenderer(ctx context.Context, noCache bool) (*render.Runner, error) {
	ch, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	return render.NewRunner(cache.Instrument(ch, "render"), nil, c.Logger), nil
}

func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache || c.cfg.Cache.Disabled {
		return cache.NewNullCache(), nil
	}
	if c.cfg.Store.Backend == config.BackendRedis {
		return cache.NewRedisCache(ctx, c.cfg.Store.RedisAddr, c.cfg.Store.RedisPrefix)
	}
	dir, err := c.cfg.Cache.CacheDir()
	if err != nil {
		c.Logger.Warn("no cache directory, caching disabled", "err", err)
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}
