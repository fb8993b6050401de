package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/buckleypaul/espprov/internal/artifact"
	"github.com/buckleypaul/espprov/internal/flash"
)

const (
	DefaultBaudRate = 115200
	DefaultProduct  = "product"
	DefaultTimeout  = Duration(30 * time.Second)
)

// Duration is a time.Duration that reads and writes as "30s" in JSON.
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Config holds all espprov configuration.
type Config struct {
	BaseDir         string          `json:"base_dir,omitempty"`
	Product         string          `json:"product,omitempty"`
	SerialPort      string          `json:"serial_port,omitempty"`
	SerialBaudRate  int             `json:"serial_baud_rate,omitempty"`
	EsptoolPath     string          `json:"esptool_path,omitempty"`
	VenvPath        string          `json:"venv_path,omitempty"`
	DownloadTimeout Duration        `json:"download_timeout,omitempty"`
	FlashMode       string          `json:"flash_mode,omitempty"`
	FlashFreq       string          `json:"flash_freq,omitempty"`
	NoCompress      bool            `json:"no_compress,omitempty"`
	Artifacts       []artifact.Spec `json:"artifacts,omitempty"`
}

var (
	flashModes = []string{"qio", "qout", "dio", "dout"}
	flashFreqs = []string{"80m", "40m", "26m", "20m"}
)

// Defaults returns a Config with default values. The base directory is the
// user's Downloads folder.
func Defaults() Config {
	cfg := Config{
		Product:         DefaultProduct,
		SerialBaudRate:  DefaultBaudRate,
		DownloadTimeout: DefaultTimeout,
		FlashMode:       flash.FlashModeDIO,
		FlashFreq:       flash.FlashFreq40M,
		Artifacts:       artifact.DefaultManifest(),
	}
	if home, err := os.UserHomeDir(); err == nil {
		cfg.BaseDir = filepath.Join(home, "Downloads")
	}
	return cfg
}

// ArtifactDir is where downloaded artifacts live.
func (c Config) ArtifactDir() string {
	return filepath.Join(c.BaseDir, c.Product)
}

// Load reads and merges global and local configs.
// Order: defaults → global (~/.config/espprov/config.json) → local
// (<artifact dir>/.espprov/config.json). The local file is looked up after
// the global file has had a chance to move the base directory.
func Load() Config {
	cfg := Defaults()

	if home, err := os.UserHomeDir(); err == nil {
		mergeFromFile(&cfg, filepath.Join(home, ".config", "espprov", "config.json"))
	}

	mergeFromFile(&cfg, localPath(cfg.ArtifactDir()))
	return cfg
}

// WithBaseDir returns c moved to dir, with the local config of the new
// artifact directory merged over it. An empty dir, or the current one,
// returns c unchanged.
func (c Config) WithBaseDir(dir string) Config {
	if dir == "" || filepath.Clean(dir) == filepath.Clean(c.BaseDir) {
		return c
	}
	c.BaseDir = dir
	mergeFromFile(&c, localPath(c.ArtifactDir()))
	c.BaseDir = dir
	return c
}

// LoadFile merges a single explicit config file over the defaults.
func LoadFile(path string) (Config, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "read config")
	}
	var fileCfg Config
	if err := json.Unmarshal(data, &fileCfg); err != nil {
		return cfg, errors.Wrapf(err, "parse config %s", path)
	}
	merge(&cfg, fileCfg)
	return cfg, nil
}

// Save writes the config to <artifact dir>/.espprov/config.json by default,
// or to the global config if global is true.
func Save(cfg Config, global bool) error {
	var path string
	if global {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		path = filepath.Join(home, ".config", "espprov", "config.json")
	} else {
		path = localPath(cfg.ArtifactDir())
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}

// Validate rejects configurations no command can work with.
func (c Config) Validate() error {
	if c.BaseDir == "" {
		return errors.New("base_dir is not set and the home directory is unknown")
	}
	if c.SerialBaudRate <= 0 {
		return errors.Errorf("serial_baud_rate must be positive, got %d", c.SerialBaudRate)
	}
	if c.FlashMode != "" && !oneOf(c.FlashMode, flashModes) {
		return errors.Errorf("flash_mode must be one of %v, got %q", flashModes, c.FlashMode)
	}
	if c.FlashFreq != "" && !oneOf(c.FlashFreq, flashFreqs) {
		return errors.Errorf("flash_freq must be one of %v, got %q", flashFreqs, c.FlashFreq)
	}
	seen := map[string]bool{}
	for _, s := range c.Artifacts {
		if err := s.Validate(); err != nil {
			return errors.Wrap(err, "artifacts")
		}
		if seen[s.Name] {
			return errors.Errorf("artifacts: duplicate name %s", s.Name)
		}
		seen[s.Name] = true
	}
	return nil
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

func localPath(artifactDir string) string {
	return filepath.Join(artifactDir, ".espprov", "config.json")
}

func mergeFromFile(cfg *Config, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}

	var fileCfg Config
	if err := json.Unmarshal(data, &fileCfg); err != nil {
		return
	}
	merge(cfg, fileCfg)
}

func merge(cfg *Config, fileCfg Config) {
	if fileCfg.BaseDir != "" {
		cfg.BaseDir = fileCfg.BaseDir
	}
	if fileCfg.Product != "" {
		cfg.Product = fileCfg.Product
	}
	if fileCfg.SerialPort != "" {
		cfg.SerialPort = fileCfg.SerialPort
	}
	if fileCfg.SerialBaudRate != 0 {
		cfg.SerialBaudRate = fileCfg.SerialBaudRate
	}
	if fileCfg.EsptoolPath != "" {
		cfg.EsptoolPath = fileCfg.EsptoolPath
	}
	if fileCfg.VenvPath != "" {
		cfg.VenvPath = fileCfg.VenvPath
	}
	if fileCfg.DownloadTimeout != 0 {
		cfg.DownloadTimeout = fileCfg.DownloadTimeout
	}
	if fileCfg.FlashMode != "" {
		cfg.FlashMode = fileCfg.FlashMode
	}
	if fileCfg.FlashFreq != "" {
		cfg.FlashFreq = fileCfg.FlashFreq
	}
	if fileCfg.NoCompress {
		cfg.NoCompress = true
	}
	if len(fileCfg.Artifacts) > 0 {
		cfg.Artifacts = fileCfg.Artifacts
	}
}
