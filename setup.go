package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ccollins476ad/imgfetch/download"
	"gopkg.in/yaml.v3"
)

const defaultDestDir = "Fetched_Images"

type Config struct {
	DestDir   string        `yaml:"dest_dir"`   // Directory to save images to.
	Jobs      int           `yaml:"jobs"`       // Number of urls to fetch in parallel.
	Timeout   time.Duration `yaml:"timeout"`    // Per-url request timeout.
	MaxSize   int64         `yaml:"max_size"`   // Largest advertised image size to accept, in bytes.
	UserAgent string        `yaml:"user_agent"` // User-Agent header sent with each request.
	Verbose   bool          `yaml:"verbose"`    // True for verbose output.

	Input string   `yaml:"-"` // File to extract urls from; "-" for stdin.
	URLs  []string `yaml:"-"` // Urls given on the command line.
}

func defaultConfig() *Config {
	return &Config{
		DestDir:   defaultDestDir,
		Jobs:      1,
		Timeout:   download.DefaultTimeout,
		MaxSize:   download.DefaultMaxSize,
		UserAgent: download.DefaultUserAgent,
	}
}

// loadConfigFile overlays the settings in the given yaml file onto cfg.
func loadConfigFile(filename string, cfg *Config) error {
	b, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	err = yaml.Unmarshal(b, cfg)
	if err != nil {
		return fmt.Errorf("failed to parse config file: path=%s: %w", filename, err)
	}

	return nil
}

// parseArgs builds the configuration from defaults, then the optional config
// file, then any flags set on the command line.
func parseArgs(fs *flag.FlagSet, args []string) (*Config, error) {
	def := defaultConfig()

	configFile := fs.String("c", "", "yaml config file")
	destDir := fs.String("d", def.DestDir, "destination directory")
	jobs := fs.Int("j", def.Jobs, "jobs")
	timeout := fs.Duration("t", def.Timeout, "per-url timeout")
	maxSize := fs.Int64("max-size", def.MaxSize, "largest advertised image size, in bytes")
	userAgent := fs.String("user-agent", def.UserAgent, "User-Agent header")
	verbose := fs.Bool("v", false, "verbose output")
	input := fs.String("f", "", "read urls from file (\"-\" for stdin)")

	fs.Usage = func() { usage(fs) }
	err := fs.Parse(args)
	if err != nil {
		return nil, err
	}

	cfg := def
	if *configFile != "" {
		err := loadConfigFile(*configFile, cfg)
		if err != nil {
			return nil, err
		}
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "d":
			cfg.DestDir = *destDir
		case "j":
			cfg.Jobs = *jobs
		case "t":
			cfg.Timeout = *timeout
		case "max-size":
			cfg.MaxSize = *maxSize
		case "user-agent":
			cfg.UserAgent = *userAgent
		case "v":
			cfg.Verbose = *verbose
		}
	})

	cfg.Input = *input
	cfg.URLs = fs.Args()

	if cfg.DestDir == "" {
		return nil, fmt.Errorf("destination directory must not be empty")
	}
	if cfg.Jobs < 1 {
		return nil, fmt.Errorf("invalid job count: have=%d want>=1", cfg.Jobs)
	}
	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("invalid timeout: %s", cfg.Timeout)
	}
	if cfg.MaxSize <= 0 {
		return nil, fmt.Errorf("invalid max size: %d", cfg.MaxSize)
	}

	return cfg, nil
}

func usage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: %s [option]... [url[,url]...]...\n", filepath.Base(os.Args[0]))
	fmt.Fprintf(fs.Output(), "Fetches images from the given urls. Prompts for urls if none are given.\n")
	fs.PrintDefaults()
}
