package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"tradepilot/internal/logger"
	"tradepilot/internal/pkg/symbol"

	"github.com/fsnotify/fsnotify"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Profile overrides the global AI settings for one instrument.
type Profile struct {
	DecisionInterval    string  `yaml:"decision_interval" json:"decision_interval,omitempty"`
	ConfidenceThreshold float64 `yaml:"confidence_threshold" json:"confidence_threshold,omitempty"`
	MaxPositionSize     float64 `yaml:"max_position_size" json:"max_position_size,omitempty"`
	LeverageCap         int     `yaml:"leverage_cap" json:"leverage_cap,omitempty"`
}

type profileFile struct {
	Profiles map[string]Profile `yaml:"profiles"`
}

const profileSchemaJSON = `{
  "type": "object",
  "properties": {
    "decision_interval": {"type": "string", "pattern": "^[0-9]+[smhd]$"},
    "confidence_threshold": {"type": "number", "minimum": 0, "maximum": 1},
    "max_position_size": {"type": "number", "minimum": 0, "maximum": 1},
    "leverage_cap": {"type": "integer", "minimum": 1, "maximum": 20}
  },
  "additionalProperties": false
}`

// ProfileRegistry loads per-symbol profiles from a YAML file and reloads
// them when the file changes. Readers always see a complete snapshot.
type ProfileRegistry struct {
	path   string
	schema *jsonschema.Schema

	mu       sync.RWMutex
	profiles map[string]Profile
}

func NewProfileRegistry(path string) (*ProfileRegistry, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("profile registry requires a path")
	}
	schema, err := jsonschema.CompileString("profile.schema.json", profileSchemaJSON)
	if err != nil {
		return nil, fmt.Errorf("compiling profile schema failed: %w", err)
	}
	r := &ProfileRegistry{path: path, schema: schema}
	if err := r.reload(); err != nil {
		return nil, err
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading profile file failed: %w", err)
	}
	v.OnConfigChange(func(evt fsnotify.Event) {
		if err := r.reload(); err != nil {
			logger.Errorf("profile reload failed: %v", err)
			return
		}
		logger.Infof("profiles reloaded from %s (%s)", r.path, evt.Op)
	})
	v.WatchConfig()
	return r, nil
}

// Resolve returns the profile for a symbol, if one exists.
func (r *ProfileRegistry) Resolve(sym string) (Profile, bool) {
	key := symbol.Normalize(sym)
	if key == "" {
		key = strings.ToUpper(strings.TrimSpace(sym))
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[key]
	return p, ok
}

// Interval parses the profile override, falling back to the given default.
func (p Profile) Interval(fallback time.Duration) time.Duration {
	d, ok := ParseInterval(p.DecisionInterval)
	if !ok {
		return fallback
	}
	return d
}

func (r *ProfileRegistry) reload() error {
	raw, err := os.ReadFile(r.path)
	if err != nil {
		return fmt.Errorf("reading profile file failed: %w", err)
	}
	var file profileFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("parsing profile file failed: %w", err)
	}
	profiles := make(map[string]Profile, len(file.Profiles))
	for name, p := range file.Profiles {
		if err := r.validateProfile(name, p); err != nil {
			return err
		}
		key := symbol.Normalize(name)
		if key == "" {
			key = strings.ToUpper(strings.TrimSpace(name))
		}
		profiles[key] = p
	}
	r.mu.Lock()
	r.profiles = profiles
	r.mu.Unlock()
	return nil
}

func (r *ProfileRegistry) validateProfile(name string, p Profile) error {
	// round-trip through encoding/json so the schema validator sees
	// JSON-shaped values
	buf, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("profile %s: %w", name, err)
	}
	var doc any
	if err := json.Unmarshal(buf, &doc); err != nil {
		return fmt.Errorf("profile %s: %w", name, err)
	}
	if err := r.schema.Validate(doc); err != nil {
		return fmt.Errorf("profile %s invalid: %w", name, err)
	}
	return nil
}

// ParseInterval parses "30s", "5m", "1h", "1d" into a time.Duration.
func ParseInterval(interval string) (time.Duration, bool) {
	interval = strings.ToLower(strings.TrimSpace(interval))
	if len(interval) < 2 {
		return 0, false
	}
	unit := interval[len(interval)-1]
	n, err := strconv.Atoi(strings.TrimSpace(interval[:len(interval)-1]))
	if err != nil || n <= 0 {
		return 0, false
	}
	switch unit {
	case 's':
		return time.Duration(n) * time.Second, true
	case 'm':
		return time.Duration(n) * time.Minute, true
	case 'h':
		return time.Duration(n) * time.Hour, true
	case 'd':
		return time.Duration(n) * 24 * time.Hour, true
	default:
		return 0, false
	}
}
