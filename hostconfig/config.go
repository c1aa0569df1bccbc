package hostconfig

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v3"
)

// Config is the runtime configuration of an embedded host.
type Config struct {
	// APIVersion is the host API version to emulate. Empty means Compiled().
	APIVersion string    `yaml:"api_version" json:"api_version,omitempty" validate:"omitempty,apiversion" jsonschema:"pattern=^[0-9]+\\.[0-9]+$"`
	GC         GCConfig  `yaml:"gc" json:"gc"`
	Log        LogConfig `yaml:"log" json:"log"`
}

// GCConfig tunes the collector.
type GCConfig struct {
	// Stress runs a full collection before every allocation.
	Stress bool `yaml:"stress" json:"stress,omitempty"`
	// AutoCompact compacts the heap after every full collection.
	AutoCompact bool `yaml:"auto_compact" json:"auto_compact,omitempty"`
	// HeapSlots is the live slot count that triggers a collection on allocation.
	HeapSlots int `yaml:"heap_slots" json:"heap_slots,omitempty" validate:"gte=0"`
	// MallocLimit is the number of bytes reported by wrapped values since the
	// last collection that triggers a collection on allocation.
	MallocLimit int `yaml:"malloc_limit" json:"malloc_limit,omitempty" validate:"gte=0"`
}

// LogConfig configures the runtime logger.
type LogConfig struct {
	Level  string `yaml:"level" json:"level,omitempty" validate:"omitempty,oneof=debug info warn error" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
	Format string `yaml:"format" json:"format,omitempty" validate:"omitempty,oneof=text json" jsonschema:"enum=text,enum=json"`
}

// Defaults for GCConfig.
const (
	DefaultHeapSlots   = 10000
	DefaultMallocLimit = 16 * 1024 * 1024
)

// validate is a package-level singleton; building a validator is expensive.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("apiversion", func(fl validator.FieldLevel) bool {
		_, err := ParseVersion(fl.Field().String())
		return err == nil
	})
	return v
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() Config {
	return Config{
		GC: GCConfig{
			HeapSlots:   DefaultHeapSlots,
			MallocLimit: DefaultMallocLimit,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks c against its validation tags.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// Version returns the configured API version, or Compiled() when unset.
func (c Config) Version() Version {
	if c.APIVersion == "" {
		return Compiled()
	}
	v, err := ParseVersion(c.APIVersion)
	if err != nil {
		return Compiled()
	}
	return v
}

// ParseConfig decodes YAML over DefaultConfig and validates the result.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads and parses a YAML config file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return ParseConfig(data)
}

// Schema returns the JSON schema of Config.
func Schema() ([]byte, error) {
	reflector := jsonschema.Reflector{
		ExpandedStruct: true,
	}
	schema := reflector.Reflect(&Config{})

	out, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	return out, nil
}
