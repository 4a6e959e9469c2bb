package ratelimit

import (
	"strings"
)

// MatchEndpoint matches a request path and method to an endpoint
// configuration, or nil when no configuration applies. Paths ending in "/"
// match by prefix, so "/api/runs/" covers "/api/runs/{id}".
func MatchEndpoint(path, method string, configs []EndpointConfig) *EndpointConfig {
	// The health check must stay reachable for probes even under abuse.
	if path == "/api/health" && method == "GET" {
		return &EndpointConfig{Limit: 0}
	}

	for i := range configs {
		config := &configs[i]
		if config.Path == path && config.Method == method {
			return config
		}
	}

	for i := range configs {
		config := &configs[i]
		if config.Method == method && strings.HasSuffix(config.Path, "/") && strings.HasPrefix(path, config.Path) {
			return config
		}
	}

	return nil
}
