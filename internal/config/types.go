// types.go
package config

// Raw config loaded from YAML. Pointer fields distinguish "unset" from zero
// so layers can be merged.
type RawConfig struct {
	Version string        `yaml:"version"`
	Data    DataConfig    `yaml:"data"`
	Primary PrimaryConfig `yaml:"primary"`
	Resolve ResolveConfig `yaml:"resolve"`
	Watch   *WatchConfig  `yaml:"watch,omitempty"`
	Log     LogConfig     `yaml:"log"`
	Fixture *Fixture      `yaml:"fixture,omitempty"`
	Notes   string        `yaml:"notes,omitempty"`
}

type DataConfig struct {
	MeshesDir   string `yaml:"meshes_dir"`   // e.g. Data/Meshes
	OverrideDir string `yaml:"override_dir"` // folder under meshes, e.g. AnimGroupOverride
}

// PrimaryConfig names the player: the only actor allowed first person overrides.
type PrimaryConfig struct {
	Ref  *uint32 `yaml:"ref"`
	Base *uint32 `yaml:"base"`
}

type ResolveConfig struct {
	Seed *uint64 `yaml:"seed,omitempty"` // 0 or unset: fresh entropy per pick
}

type WatchConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Interval string `yaml:"interval"` // time.ParseDuration syntax
}

type LogConfig struct {
	Level string `yaml:"level"` // debug|info|warn|error
}

// Fixture describes a stand-in host for the harness: load order, forms and
// the stem -> group table used by the filesystem clip store.
type Fixture struct {
	Mods   []string          `yaml:"mods"`
	Forms  []FormConfig      `yaml:"forms"`
	Groups map[string]uint32 `yaml:"groups"`
}

type FormConfig struct {
	ID      uint32   `yaml:"id"`
	Kind    string   `yaml:"kind"` // weapon|actor|list
	Base    uint32   `yaml:"base,omitempty"`
	Name    string   `yaml:"name,omitempty"`
	Members []uint32 `yaml:"members,omitempty"`
}

// Env holds ANIMOVERRIDE_* overrides, applied after all YAML layers.
type Env struct {
	MeshesDir   string `env:"ANIMOVERRIDE_MESHES_DIR"`
	OverrideDir string `env:"ANIMOVERRIDE_OVERRIDE_DIR"`
	LogLevel    string `env:"ANIMOVERRIDE_LOG_LEVEL"`
	Seed        uint64 `env:"ANIMOVERRIDE_SEED"`
	Watch       bool   `env:"ANIMOVERRIDE_WATCH"`
}

// Normalized settings used by the rest of the program.
type Settings struct {
	MeshesDir     string
	OverrideDir   string
	PrimaryRef    uint32
	PrimaryBase   uint32
	Seed          uint64
	Watch         bool
	WatchInterval string
	LogLevel      string
	Fixture       Fixture
	Version       string // effective config version for tracing
}
