// Package config holds the job configuration. The file format follows the
// extension: .toml, .yaml/.yml, anything else is JSON.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	yaml "gopkg.in/yaml.v3"

	"github.com/wdm0006/sparkify/pkg/io/jsonio"
	"github.com/wdm0006/sparkify/pkg/logger"
)

const (
	DriverS3    = "s3"
	DriverMinio = "minio"
)

type Storage struct {
	// Driver selects the object store client for s3 locations.
	Driver   string `json:"driver" toml:"driver" yaml:"driver"`
	Region   string `json:"region" toml:"region" yaml:"region"`
	Endpoint string `json:"endpoint" toml:"endpoint" yaml:"endpoint"`
	UseSSL   bool   `json:"use_ssl" toml:"use_ssl" yaml:"use_ssl"`
}

type Config struct {
	Input    string `json:"input" toml:"input" yaml:"input"`
	Output   string `json:"output" toml:"output" yaml:"output"`
	SongGlob string `json:"song_glob" toml:"song_glob" yaml:"song_glob"`
	LogGlob  string `json:"log_glob" toml:"log_glob" yaml:"log_glob"`
	// Malformed is "fail" or "skip".
	Malformed string `json:"malformed" toml:"malformed" yaml:"malformed"`
	// Preview prints the first rows of every derived table.
	Preview     int    `json:"preview" toml:"preview" yaml:"preview"`
	Credentials string `json:"credentials" toml:"credentials" yaml:"credentials"`
	EnvFile     string `json:"env_file" toml:"env_file" yaml:"env_file"`
	// StagingDir holds parquet files before upload.
	StagingDir string `json:"staging_dir" toml:"staging_dir" yaml:"staging_dir"`

	Storage Storage       `json:"storage" toml:"storage" yaml:"storage"`
	Log     logger.Config `json:"log" toml:"log" yaml:"log"`
}

// Default returns the settings of the original job.
func Default() Config {
	return Config{
		Input:       "s3a://udacity-dend/",
		Output:      "s3a://output-data-lake/",
		SongGlob:    "song_data/*/*/*/*.json",
		LogGlob:     "log_data/*/*/*.json",
		Malformed:   string(jsonio.PolicyFail),
		Credentials: "dl.cfg",
		Storage:     Storage{Driver: DriverS3, Region: "us-west-2", UseSSL: true},
		Log:         logger.Config{Level: "info", Encoding: "console"},
	}
}

// Load decodes path over the defaults. Fields absent from the file keep
// their default value.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(b, &cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &cfg)
	default:
		err = json.Unmarshal(b, &cfg)
	}
	if err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.Input == "" {
		return fmt.Errorf("config: input is empty")
	}
	if c.Output == "" {
		return fmt.Errorf("config: output is empty")
	}
	if c.SongGlob == "" || c.LogGlob == "" {
		return fmt.Errorf("config: song_glob and log_glob are required")
	}
	if _, err := jsonio.ParsePolicy(c.Malformed); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	switch c.Storage.Driver {
	case "", DriverS3:
	case DriverMinio:
		if c.Storage.Endpoint == "" {
			return fmt.Errorf("config: storage driver %q needs an endpoint", DriverMinio)
		}
	default:
		return fmt.Errorf("config: unknown storage driver %q", c.Storage.Driver)
	}
	if c.Preview < 0 {
		return fmt.Errorf("config: preview must not be negative")
	}
	return nil
}
