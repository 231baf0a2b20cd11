// Package config loads cardtree settings from a TOML file.
//
// A missing file is not an error: every setting has a default, and the CLI
// overrides individual values from flags after loading.
//
//	cfg, err := config.Load(config.DefaultPath())
//	if err != nil {
//	    return err
//	}
//	eng := layout.New(store, layout.WithMargin(cfg.Layout.Margin()))
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	errs "github.com/matzehuels/cardtree/pkg/errors"
	"github.com/matzehuels/cardtree/pkg/layout"
)

const appName = "cardtree"

// Store backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendMongo = "mongo"
)

// Defaults.
const (
	DefaultStorePath     = "canvas.json"
	DefaultRedisAddr     = "localhost:6379"
	DefaultRedisPrefix   = appName
	DefaultMongoURI      = "mongodb://localhost:27017"
	DefaultMongoDatabase = appName
	DefaultServerAddr    = ":8080"
)

// Config is the full set of cardtree settings.
type Config struct {
	Layout LayoutConfig `toml:"layout"`
	Store  StoreConfig  `toml:"store"`
	Server ServerConfig `toml:"server"`
	Cache  CacheConfig  `toml:"cache"`
}

// LayoutConfig holds the tree margins in canvas units.
type LayoutConfig struct {
	VerticalMargin   float64 `toml:"vertical_margin"`
	HorizontalMargin float64 `toml:"horizontal_margin"`
}

// Margin converts the settings for layout.WithMargin.
func (l LayoutConfig) Margin() layout.Margin {
	return layout.Margin{Vertical: l.VerticalMargin, Horizontal: l.HorizontalMargin}
}

// StoreConfig selects where the canvas lives.
type StoreConfig struct {
	Backend       string `toml:"backend"`
	Path          string `toml:"path"`
	RedisAddr     string `toml:"redis_addr"`
	RedisPrefix   string `toml:"redis_prefix"`
	MongoURI      string `toml:"mongo_uri"`
	MongoDatabase string `toml:"mongo_database"`
}

// ServerConfig configures `cardtree serve`.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// CacheConfig configures the render artifact cache. An empty Dir means the
// user cache directory.
type CacheConfig struct {
	Dir      string `toml:"dir"`
	Disabled bool   `toml:"disabled"`
}

// Default returns the settings used when no file is present.
func Default() Config {
	return Config{
		Layout: LayoutConfig{
			VerticalMargin:   layout.DefaultMargin.Vertical,
			HorizontalMargin: layout.DefaultMargin.Horizontal,
		},
		Store: StoreConfig{
			Backend:       BackendFile,
			Path:          DefaultStorePath,
			RedisAddr:     DefaultRedisAddr,
			RedisPrefix:   DefaultRedisPrefix,
			MongoURI:      DefaultMongoURI,
			MongoDatabase: DefaultMongoDatabase,
		},
		Server: ServerConfig{Addr: DefaultServerAddr},
	}
}

// Load reads path over the defaults. Keys absent from the file keep their
// default value; a missing file yields Default().
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	md, err := toml.DecodeFile(path, &cfg)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, errs.Wrap(errs.ErrCodeInvalidConfig, err, "read config %s", path)
	}
	if keys := md.Undecoded(); len(keys) > 0 {
		return Config{}, errs.New(errs.ErrCodeInvalidConfig, "unknown config key %q in %s", keys[0].String(), path)
	}
	return cfg, cfg.Validate()
}

// Validate rejects settings no component can run with.
func (c Config) Validate() error {
	if err := errs.ValidateMargin("vertical", c.Layout.VerticalMargin); err != nil {
		return err
	}
	if err := errs.ValidateMargin("horizontal", c.Layout.HorizontalMargin); err != nil {
		return err
	}
	switch c.Store.Backend {
	case BackendFile:
		if c.Store.Path == "" {
			return errs.New(errs.ErrCodeInvalidConfig, "store.path is required for the file backend")
		}
	case BackendRedis:
		if c.Store.RedisAddr == "" {
			return errs.New(errs.ErrCodeInvalidConfig, "store.redis_addr is required for the redis backend")
		}
	case BackendMongo:
		if c.Store.MongoURI == "" || c.Store.MongoDatabase == "" {
			return errs.New(errs.ErrCodeInvalidConfig, "store.mongo_uri and store.mongo_database are required for the mongo backend")
		}
	default:
		return errs.New(errs.ErrCodeInvalidConfig, "unknown store backend %q", c.Store.Backend)
	}
	return nil
}

// DefaultPath is $XDG_CONFIG_HOME/cardtree/config.toml, falling back to
// ~/.config.
func DefaultPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, appName, "config.toml")
}

// CacheDir resolves the render cache directory: the configured one, else
// $XDG_CACHE_HOME/cardtree, else ~/.cache/cardtree.
func (c CacheConfig) CacheDir() (string, error) {
	if c.Dir != "" {
		return c.Dir, nil
	}
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
