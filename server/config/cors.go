package config

import "net/http"

// CORS defines the server CORS configuration
type CORS struct {
	// The allowed request origins
	AllowedOrigins []string `toml:"allowed_origins"`

	// The allowed request methods
	AllowedMethods []string `toml:"allowed_methods"`

	// The allowed request headers
	AllowedHeaders []string `toml:"allowed_headers"`
}

// DefaultCORSConfig returns the default CORS configuration
func DefaultCORSConfig() *CORS {
	return &CORS{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowedHeaders: []string{"*"},
	}
}
