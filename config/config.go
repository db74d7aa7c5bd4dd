// Package config loads and watches the wikigraph configuration. The config
// file is TOML (wikigraph.toml), read through Viper with environment
// overrides (WIKIGRAPH_ prefix), and can be live-reloaded via fsnotify.
package config

// Config represents the core wikigraph configuration
type Config struct {
	Server Server `mapstructure:"server"`
	Fetch  Fetch  `mapstructure:"fetch"`
	Engine Engine `mapstructure:"engine"`
	Log    Log    `mapstructure:"log"`
}

// Server configures the visualization WebSocket server
type Server struct {
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Fetch configures the knowledge-graph service client
type Fetch struct {
	BaseURL        string `mapstructure:"base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// Engine configures filter and layout defaults for new view sessions
type Engine struct {
	// MaxNodes is the default node cap; 0 disables capping
	MaxNodes int `mapstructure:"max_nodes"`
	// DepthLimit is the default depth slider position; values at or above
	// the filter package's unlimited constant disable depth filtering
	DepthLimit int `mapstructure:"depth_limit"`

	Physics Physics `mapstructure:"physics"`
}

// Physics tunes the force simulation handed to the renderer
type Physics struct {
	ChargeStrength float64 `mapstructure:"charge_strength"`
	LinkDistance   float64 `mapstructure:"link_distance"`
	LinkStrength   float64 `mapstructure:"link_strength"`
}

// Log configures logging output
type Log struct {
	JSON bool `mapstructure:"json"`
}

// Default server port constants
const (
	DefaultServerPort = 8787
)
