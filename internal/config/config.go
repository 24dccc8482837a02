// Package config resolves alcviz settings from defaults, an optional config
// file, a .env file and ALCVIZ_* environment variables. Command-line flags
// are applied on top by the caller.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Speed bounds, mirrored from the scheduler so config stays dependency-free.
const (
	MinSpeed = 0
	MaxSpeed = 9
)

type Config struct {
	SystemPath string // ALCVIZ_SYSTEM (default "out.sys")
	StatsPath  string // ALCVIZ_STATS (default "out.sta")
	Speed      int    // ALCVIZ_SPEED (default 5; 0 = render once)
	StatsSpeed int    // ALCVIZ_STATS_SPEED (default: same as Speed)
	Format     string // ALCVIZ_FORMAT (default "svg")

	HTTPAddr  string // ALCVIZ_HTTP_ADDR (default ":8080")
	NATSURL   string // ALCVIZ_NATS_URL (optional, empty = no events)
	AuthToken string // ALCVIZ_AUTH_TOKEN (optional, empty = auth disabled)

	// Mirror settings
	MirrorS3Bucket    string        // ALCVIZ_MIRROR_S3_BUCKET (enables S3 when set)
	MirrorS3KeyPrefix string        // ALCVIZ_MIRROR_S3_KEY_PREFIX (default "alcviz/")
	MirrorS3Region    string        // ALCVIZ_MIRROR_S3_REGION (default "us-east-1")
	MirrorS3Endpoint  string        // ALCVIZ_MIRROR_S3_ENDPOINT (custom endpoint for MinIO)
	MirrorDir         string        // ALCVIZ_MIRROR_DIR (enables directory mirror when set)
	MirrorInterval    time.Duration // ALCVIZ_MIRROR_INTERVAL (default 1s)

	// Source is the config file that was read, if any.
	Source string
}

// Defaults returns the built-in settings.
func Defaults() *Config {
	return &Config{
		SystemPath:        "out.sys",
		StatsPath:         "out.sta",
		Speed:             5,
		StatsSpeed:        5,
		Format:            "svg",
		HTTPAddr:          ":8080",
		MirrorS3KeyPrefix: "alcviz/",
		MirrorS3Region:    "us-east-1",
		MirrorInterval:    time.Second,
	}
}

// Load resolves settings: defaults, then the config file (path, or
// ALCVIZ_CONFIG when path is empty), then the environment. A .env file in
// the working directory is loaded first; it never overrides variables that
// are already set.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	c := Defaults()
	statsSpeedSet := false
	if path == "" {
		path = os.Getenv("ALCVIZ_CONFIG")
	}
	if path != "" {
		f, err := readFile(path)
		if err != nil {
			return nil, err
		}
		if err := f.apply(c); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		c.Source = path
		statsSpeedSet = f.StatsSpeed != nil
	}
	if err := c.applyEnv(statsSpeedSet); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// applyEnv overrides c from ALCVIZ_* variables. ALCVIZ_SPEED also sets the
// stats speed unless ALCVIZ_STATS_SPEED or the config file gives one.
func (c *Config) applyEnv(statsSpeedSet bool) error {
	c.SystemPath = envOrDefault("ALCVIZ_SYSTEM", c.SystemPath)
	c.StatsPath = envOrDefault("ALCVIZ_STATS", c.StatsPath)
	c.Format = envOrDefault("ALCVIZ_FORMAT", c.Format)
	c.HTTPAddr = envOrDefault("ALCVIZ_HTTP_ADDR", c.HTTPAddr)
	c.NATSURL = envOrDefault("ALCVIZ_NATS_URL", c.NATSURL)
	c.AuthToken = envOrDefault("ALCVIZ_AUTH_TOKEN", c.AuthToken)
	c.MirrorS3Bucket = envOrDefault("ALCVIZ_MIRROR_S3_BUCKET", c.MirrorS3Bucket)
	c.MirrorS3KeyPrefix = envOrDefault("ALCVIZ_MIRROR_S3_KEY_PREFIX", c.MirrorS3KeyPrefix)
	c.MirrorS3Region = envOrDefault("ALCVIZ_MIRROR_S3_REGION", c.MirrorS3Region)
	c.MirrorS3Endpoint = envOrDefault("ALCVIZ_MIRROR_S3_ENDPOINT", c.MirrorS3Endpoint)
	c.MirrorDir = envOrDefault("ALCVIZ_MIRROR_DIR", c.MirrorDir)

	if v := os.Getenv("ALCVIZ_SPEED"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("ALCVIZ_SPEED: %w", err)
		}
		c.Speed = n
		if !statsSpeedSet && os.Getenv("ALCVIZ_STATS_SPEED") == "" {
			c.StatsSpeed = n
		}
	}
	if v := os.Getenv("ALCVIZ_STATS_SPEED"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("ALCVIZ_STATS_SPEED: %w", err)
		}
		c.StatsSpeed = n
	}
	if v := os.Getenv("ALCVIZ_MIRROR_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("ALCVIZ_MIRROR_INTERVAL: %w", err)
		}
		c.MirrorInterval = d
	}
	return nil
}

// Validate checks ranges and required values.
func (c *Config) Validate() error {
	var errs []error
	if c.SystemPath == "" {
		errs = append(errs, errors.New("system path is required"))
	}
	if c.StatsPath == "" {
		errs = append(errs, errors.New("stats path is required"))
	}
	for name, v := range map[string]int{"speed": c.Speed, "stats speed": c.StatsSpeed} {
		if v < MinSpeed || v > MaxSpeed {
			errs = append(errs, fmt.Errorf("%s %d out of range %d..%d", name, v, MinSpeed, MaxSpeed))
		}
	}
	switch strings.ToLower(c.Format) {
	case "svg", "png":
	default:
		errs = append(errs, fmt.Errorf("format %q must be svg or png", c.Format))
	}
	if c.MirrorInterval <= 0 {
		errs = append(errs, fmt.Errorf("mirror interval %v must be positive", c.MirrorInterval))
	}
	return errors.Join(errs...)
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// file is the on-disk config. Unset fields keep their defaults.
type file struct {
	System     string `toml:"system" yaml:"system"`
	Stats      string `toml:"stats" yaml:"stats"`
	Speed      *int   `toml:"speed" yaml:"speed"`
	StatsSpeed *int   `toml:"stats_speed" yaml:"stats_speed"`
	Format     string `toml:"format" yaml:"format"`
	HTTPAddr   string `toml:"http_addr" yaml:"http_addr"`
	NATSURL    string `toml:"nats_url" yaml:"nats_url"`
	AuthToken  string `toml:"auth_token" yaml:"auth_token"`
	Mirror     struct {
		S3Bucket    string `toml:"s3_bucket" yaml:"s3_bucket"`
		S3KeyPrefix string `toml:"s3_key_prefix" yaml:"s3_key_prefix"`
		S3Region    string `toml:"s3_region" yaml:"s3_region"`
		S3Endpoint  string `toml:"s3_endpoint" yaml:"s3_endpoint"`
		Dir         string `toml:"dir" yaml:"dir"`
		Interval    string `toml:"interval" yaml:"interval"`
	} `toml:"mirror" yaml:"mirror"`
}

// readFile decodes a .toml, .yaml or .yml config file.
func readFile(path string) (*file, error) {
	var f file
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		md, err := toml.DecodeFile(path, &f)
		if err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("reading config %s: unknown key %s", path, undecoded[0])
		}
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("config %s: unsupported extension %q (want .toml, .yaml or .yml)", path, ext)
	}
	return &f, nil
}

func (f *file) apply(c *Config) error {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&c.SystemPath, f.System)
	set(&c.StatsPath, f.Stats)
	set(&c.Format, f.Format)
	set(&c.HTTPAddr, f.HTTPAddr)
	set(&c.NATSURL, f.NATSURL)
	set(&c.AuthToken, f.AuthToken)
	set(&c.MirrorS3Bucket, f.Mirror.S3Bucket)
	set(&c.MirrorS3KeyPrefix, f.Mirror.S3KeyPrefix)
	set(&c.MirrorS3Region, f.Mirror.S3Region)
	set(&c.MirrorS3Endpoint, f.Mirror.S3Endpoint)
	set(&c.MirrorDir, f.Mirror.Dir)

	if f.Speed != nil {
		c.Speed = *f.Speed
		c.StatsSpeed = *f.Speed
	}
	if f.StatsSpeed != nil {
		c.StatsSpeed = *f.StatsSpeed
	}
	if f.Mirror.Interval != "" {
		d, err := time.ParseDuration(f.Mirror.Interval)
		if err != nil {
			return fmt.Errorf("mirror.interval: %w", err)
		}
		c.MirrorInterval = d
	}
	return nil
}
