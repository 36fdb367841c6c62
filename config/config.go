// Package config builds the immutable benchmark configuration from command
// line flags, MEMBASH_* environment variables and an optional config file.
package config

import (
	"errors"
	"fmt"
	"math/bits"
	"strings"
	"time"

	"github.com/docker/go-units"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every flag name when looking up environment
// overrides, e.g. MEMBASH_SIZE or MEMBASH_HASH_SCAN.
const EnvPrefix = "MEMBASH"

// WordSize is the width in bytes of the words the buffer pattern is made of.
const WordSize = bits.UintSize / 8

// ErrInvalidConfig is returned for configurations rejected before any
// buffer is acquired.
var ErrInvalidConfig = errors.New("invalid configuration")

// Flag names.
const (
	FlagSize      = "size"
	FlagIters     = "iters"
	FlagBlockCpy  = "blockcpy"
	FlagSeed      = "seed"
	FlagMmap      = "mmap"
	FlagAnonymous = "anonymous"
	FlagHash      = "hash"
	FlagHashScan  = "hash-scan"
	FlagFence     = "fence"
	FlagVerbose   = "verbose"
	FlagJSON      = "json"
	FlagConfig    = "config"
)

// Config holds the parameters of a single benchmark run. It is built once
// by Load and passed by value afterwards.
type Config struct {
	Size       uint64
	Iterations uint64
	BlockSize  uint64
	Seed       int64
	MmapPath   string
	Anonymous  bool
	Hash       bool
	HashScan   bool
	Fence      bool
	Verbose    bool
	JSON       bool
}

// Default returns the configuration used when no flag, environment variable
// or config file overrides a value. Seed is left at zero (auto).
func Default() Config {
	return Config{
		Size:       1024,
		Iterations: 1,
	}
}

// RegisterFlags declares the benchmark flags on fs.
func RegisterFlags(fs *pflag.FlagSet) {
	def := Default()

	fs.StringP(FlagSize, "s", fmt.Sprint(def.Size),
		"Region size in bytes (accepts K, M, G, T suffixes)")
	fs.StringP(FlagIters, "i", fmt.Sprint(def.Iterations),
		"Number of iterations to loop over (accepts k, M, G suffixes)")
	fs.StringP(FlagBlockCpy, "b", "0",
		"Block size in bytes for the block copy pass (0 disables it)")
	fs.Int64(FlagSeed, 0,
		"Random seed to use for data (0 = use current time)")
	fs.String(FlagMmap, "",
		"File to mmap instead of allocating from the heap")
	fs.Bool(FlagAnonymous, false,
		"Use an anonymous pre-populated mapping instead of the heap")
	fs.Bool(FlagHash, false,
		"Use a fisher-yates permutation in blockcpy mode")
	fs.Bool(FlagHashScan, false,
		"Use a fisher-yates permutation in the dumb read pass")
	fs.Bool(FlagFence, false,
		"Add a memory fence between setup and run")
	fs.BoolP(FlagVerbose, "v", false,
		"Be verbose")
	fs.Bool(FlagJSON, false,
		"Output results as JSON instead of text")
	fs.String(FlagConfig, "",
		"Path to a config file (yaml, toml or json)")
}

// Load resolves the configuration from fs, the environment and the optional
// config file named by --config, in that order of precedence. A zero seed is
// replaced by a time-derived one so the run can be reproduced from the
// returned value.
func Load(fs *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(fs); err != nil {
		return Config{}, fmt.Errorf("bind flags: %w", err)
	}

	if path := v.GetString(FlagConfig); path != "" {
		v.SetConfigFile(path)

		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg, err := fromViper(v)
	if err != nil {
		return Config{}, err
	}

	cfg.Seed = resolveSeed(cfg.Seed, time.Now)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func fromViper(v *viper.Viper) (Config, error) {
	size, err := ParseSize(v.GetString(FlagSize))
	if err != nil {
		return Config{}, fmt.Errorf("%w: --%s: %w", ErrInvalidConfig, FlagSize, err)
	}

	iters, err := ParseCount(v.GetString(FlagIters))
	if err != nil {
		return Config{}, fmt.Errorf("%w: --%s: %w", ErrInvalidConfig, FlagIters, err)
	}

	block, err := ParseSize(v.GetString(FlagBlockCpy))
	if err != nil {
		return Config{}, fmt.Errorf("%w: --%s: %w", ErrInvalidConfig, FlagBlockCpy, err)
	}

	return Config{
		Size:       size,
		Iterations: iters,
		BlockSize:  block,
		Seed:       v.GetInt64(FlagSeed),
		MmapPath:   v.GetString(FlagMmap),
		Anonymous:  v.GetBool(FlagAnonymous),
		Hash:       v.GetBool(FlagHash),
		HashScan:   v.GetBool(FlagHashScan),
		Fence:      v.GetBool(FlagFence),
		Verbose:    v.GetBool(FlagVerbose),
		JSON:       v.GetBool(FlagJSON),
	}, nil
}

func resolveSeed(seed int64, now func() time.Time) int64 {
	if seed != 0 {
		return seed
	}

	seed = now().UnixNano()
	if seed == 0 {
		seed = 1
	}

	return seed
}

// Validate reports configurations that cannot be run.
func (c Config) Validate() error {
	switch {
	case c.Size < WordSize:
		return fmt.Errorf("%w: size %d is smaller than one %d-byte word",
			ErrInvalidConfig, c.Size, WordSize)
	case c.Iterations == 0:
		return fmt.Errorf("%w: iterations must be positive", ErrInvalidConfig)
	case c.Hash && c.BlockSize == 0:
		return fmt.Errorf("%w: can only use --%s when --%s is set",
			ErrInvalidConfig, FlagHash, FlagBlockCpy)
	case c.BlockSize > c.Size:
		return fmt.Errorf("%w: block size %d exceeds region size %d",
			ErrInvalidConfig, c.BlockSize, c.Size)
	case c.MmapPath != "" && c.Anonymous:
		return fmt.Errorf("%w: --%s and --%s are mutually exclusive",
			ErrInvalidConfig, FlagMmap, FlagAnonymous)
	}

	return nil
}

// Words returns the number of whole machine words in the region.
func (c Config) Words() int {
	return int(c.Size / WordSize)
}

// Blocks returns the number of whole blocks the block copy pass visits.
func (c Config) Blocks() int {
	if c.BlockSize == 0 {
		return 0
	}

	return int(c.Size / c.BlockSize)
}

// ParseSize parses a byte quantity such as "4096", "64K", "1MiB" or "2g".
// Suffixes are binary (K = 1024).
func ParseSize(s string) (uint64, error) {
	n, err := units.RAMInBytes(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}

	if n < 0 {
		return 0, fmt.Errorf("negative size %q", s)
	}

	return uint64(n), nil
}

// ParseCount parses a count such as "10", "5k" or "1M". Suffixes are
// decimal (k = 1000).
func ParseCount(s string) (uint64, error) {
	n, err := units.FromHumanSize(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}

	if n < 0 {
		return 0, fmt.Errorf("negative count %q", s)
	}

	return uint64(n), nil
}
