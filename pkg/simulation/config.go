package simulation

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/tochemey/goakt/v3/log"

	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/flock"
)

//go:embed config.schema.json
var configSchema []byte

const configSchemaURL = "config.schema.json"

// ErrUnknownConfigFormat is returned for config files that are neither .json nor .toml.
var ErrUnknownConfigFormat = errors.New("unknown config file format")

type Config struct {
	// Population
	PopulationCount int     `json:"population_count"`
	SpawnRadius     float64 `json:"spawn_radius"`

	// Steering
	NeighborRadius float64 `json:"neighbor_radius"`
	MapRadius      float64 `json:"map_radius"`
	ReturnBias     float64 `json:"return_bias"`
	AlignmentScope string  `json:"alignment_scope"` // "global" or "neighbors"

	// Agents
	AgentSpeed float64 `json:"agent_speed"`
	AgentSize  float64 `json:"agent_size"` // rendering only

	// Seed drives the spawn; 0 picks one from the clock
	Seed uint64 `json:"seed"`

	// Window
	WorldWidth  int `json:"world_width"`
	WorldHeight int `json:"world_height"`

	// Debug drawing
	DisplayNeighborRadius bool `json:"display_neighbor_radius"`
	DisplayForces         bool `json:"display_forces"`

	LogLevel string `json:"log_level"`
}

func DefaultConfig() *Config {
	return &Config{
		PopulationCount: 2000,
		SpawnRadius:     100,
		NeighborRadius:  100,
		MapRadius:       1000,
		ReturnBias:      1,
		AlignmentScope:  flock.AlignGlobal.String(),
		AgentSpeed:      150,
		AgentSize:       30,
		WorldWidth:      1200,
		WorldHeight:     900,
		LogLevel:        "info",
	}
}

// LoadConfig loads a .json or .toml configuration file on top of DefaultConfig
// and validates it against the JSON schema. An empty schemaFile selects the
// schema embedded in this package.
func LoadConfig(configFile string, schemaFile string) (*Config, error) {
	// 1. Compile Schema
	sch, err := compileSchema(schemaFile)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	// 2. Read Config File as JSON bytes
	raw, err := readConfigDocument(configFile)
	if err != nil {
		return nil, err
	}

	// 3. Validate
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("failed to decode config json: %w", err)
	}
	if err := sch.Validate(v); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	// 4. Unmarshal into Struct, missing keys keep their defaults
	cfg := DefaultConfig()
	if err := json.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func compileSchema(schemaFile string) (*jsonschema.Schema, error) {
	if schemaFile != "" {
		return jsonschema.Compile(schemaFile)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(configSchemaURL, bytes.NewReader(configSchema)); err != nil {
		return nil, err
	}
	return c.Compile(configSchemaURL)
}

// readConfigDocument returns the file content as a JSON document.
// TOML files are decoded and re-encoded so both formats share one schema.
func readConfigDocument(configFile string) ([]byte, error) {
	switch ext := strings.ToLower(filepath.Ext(configFile)); ext {
	case ".json":
		b, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
		return b, nil
	case ".toml":
		var m map[string]interface{}
		if _, err := toml.DecodeFile(configFile, &m); err != nil {
			return nil, fmt.Errorf("failed to decode config toml: %w", err)
		}
		b, err := json.Marshal(m)
		if err != nil {
			return nil, fmt.Errorf("failed to convert toml config: %w", err)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownConfigFormat, configFile)
	}
}

// Validate checks the values the schema cannot express and the flock settings.
func (c *Config) Validate() error {
	if c.PopulationCount < 0 {
		return fmt.Errorf("population_count must be >= 0, got %d", c.PopulationCount)
	}
	if c.SpawnRadius < 0 {
		return fmt.Errorf("spawn_radius must be >= 0, got %v", c.SpawnRadius)
	}
	if c.AgentSpeed <= 0 {
		return fmt.Errorf("agent_speed must be > 0, got %v", c.AgentSpeed)
	}
	if _, err := c.Settings(); err != nil {
		return err
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Settings maps the configuration onto the flock rules.
func (c *Config) Settings() (flock.Settings, error) {
	scope, err := flock.ParseAlignmentScope(c.AlignmentScope)
	if err != nil {
		return flock.Settings{}, err
	}
	s := flock.Settings{
		NeighborRadius: c.NeighborRadius,
		MapRadius:      c.MapRadius,
		ReturnBias:     c.ReturnBias,
		Alignment:      scope,
	}
	return s, s.Validate()
}

// ParseLogLevel maps a config log level onto the actor system levels.
func ParseLogLevel(level string) (log.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return log.DebugLevel, nil
	case "", "info":
		return log.InfoLevel, nil
	case "warn", "warning":
		return log.WarningLevel, nil
	case "error":
		return log.ErrorLevel, nil
	default:
		return log.InfoLevel, fmt.Errorf("unknown log level %q", level)
	}
}
