package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"

	"github.com/agenthands/lineage/internal/core/model"
)

type ServerConfig struct {
	Port string `toml:"port" validate:"required,numeric"`
	// Debug switches gin to debug mode.
	Debug bool `toml:"debug"`
}

type LogConfig struct {
	Level string `toml:"level" validate:"omitempty,oneof=debug info warn error"`
}

type StorageConfig struct {
	Backend string `toml:"backend" validate:"oneof=none badger memgraph"`
	DataDir string `toml:"data_dir" validate:"required_if=Backend badger"`
	TreeID  string `toml:"tree_id" validate:"required"`
	// AutosaveSeconds saves on a fixed interval when positive.
	AutosaveSeconds int `toml:"autosave_seconds" validate:"gte=0"`
}

type MemgraphConfig struct {
	URI      string `toml:"uri"`
	User     string `toml:"user"`
	Password string `toml:"password"`
}

type ImportConfig struct {
	Policy string `toml:"policy" validate:"oneof=reject prune trust"`
}

type Config struct {
	Server   ServerConfig   `toml:"server"`
	Log      LogConfig      `toml:"log"`
	Settings model.Settings `toml:"settings"`
	Storage  StorageConfig  `toml:"storage"`
	Memgraph MemgraphConfig `toml:"memgraph"`
	Import   ImportConfig   `toml:"import"`
}

func Default() *Config {
	return &Config{
		Server:   ServerConfig{Port: "8080"},
		Log:      LogConfig{Level: "info"},
		Settings: model.DefaultSettings(),
		Storage: StorageConfig{
			Backend: "badger",
			DataDir: "data",
			TreeID:  "default",
		},
		Memgraph: MemgraphConfig{URI: "bolt://localhost:7687"},
		Import:   ImportConfig{Policy: "reject"},
	}
}

// Load reads a TOML file on top of Default, so a file only needs the keys
// it changes.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	return cfg, nil
}

// ApplyEnv overrides config values from the environment.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("LINEAGE_STORAGE"); v != "" {
		c.Storage.Backend = v
	}
	if v := os.Getenv("LINEAGE_DATA_DIR"); v != "" {
		c.Storage.DataDir = v
	}
	if v := os.Getenv("LINEAGE_TREE_ID"); v != "" {
		c.Storage.TreeID = v
	}
	if v := os.Getenv("LINEAGE_AUTOSAVE_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Storage.AutosaveSeconds = n
		}
	}
	if v := os.Getenv("LINEAGE_IMPORT_POLICY"); v != "" {
		c.Import.Policy = v
	}
	if v := os.Getenv("MEMGRAPH_URI"); v != "" {
		c.Memgraph.URI = v
	}
	if v := os.Getenv("MEMGRAPH_USER"); v != "" {
		c.Memgraph.User = v
	}
	if v := os.Getenv("MEMGRAPH_PASSWORD"); v != "" {
		c.Memgraph.Password = v
	}
}

func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid config: %s failed %q (%d problem(s))", fe.Namespace(), fe.Tag(), len(verrs))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Storage.Backend == "memgraph" && c.Memgraph.URI == "" {
		return errors.New("invalid config: memgraph storage requires memgraph.uri")
	}
	return nil
}
