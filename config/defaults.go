package config

import (
	"github.com/spf13/viper"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", DefaultServerPort)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5173"})

	// Fetch defaults
	v.SetDefault("fetch.base_url", "http://localhost:8000")
	v.SetDefault("fetch.timeout_seconds", 30)

	// Engine defaults
	v.SetDefault("engine.max_nodes", 500)
	v.SetDefault("engine.depth_limit", 6) // slider max: depth filtering off
	v.SetDefault("engine.physics.charge_strength", -180.0)
	v.SetDefault("engine.physics.link_distance", 60.0)
	v.SetDefault("engine.physics.link_strength", 0.7)

	// Log defaults
	v.SetDefault("log.json", false)
}
