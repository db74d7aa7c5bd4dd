package config

import "github.com/kanbu/wikigraph/errors"

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	// Server port: negative or zero is invalid (omit for default)
	if c.Server.Port <= 0 {
		return errors.Newf("server.port must be positive, got %d", c.Server.Port)
	}

	if c.Fetch.BaseURL == "" {
		return errors.New("fetch.base_url cannot be empty")
	}
	if c.Fetch.TimeoutSeconds <= 0 {
		return errors.Newf("fetch.timeout_seconds must be > 0, got %d", c.Fetch.TimeoutSeconds)
	}

	// Engine max nodes: 0 = no cap, negative = invalid
	if c.Engine.MaxNodes < 0 {
		return errors.Newf("engine.max_nodes must be >= 0, got %d", c.Engine.MaxNodes)
	}
	if c.Engine.DepthLimit < 0 {
		return errors.Newf("engine.depth_limit must be >= 0, got %d", c.Engine.DepthLimit)
	}

	// Link distance of zero collapses the simulation, charge may be any sign
	if c.Engine.Physics.LinkDistance <= 0 {
		return errors.Newf("engine.physics.link_distance must be > 0, got %f", c.Engine.Physics.LinkDistance)
	}
	if c.Engine.Physics.LinkStrength < 0 || c.Engine.Physics.LinkStrength > 1 {
		return errors.Newf("engine.physics.link_strength must be in [0, 1], got %f", c.Engine.Physics.LinkStrength)
	}

	return nil
}
