// Package config provides configuration loading and validation for assetgate.
//
// The package handles YAML configuration files, environment variables, and CLI flags
// with automatic merging and validation using go-playground/validator.
//
// # Configuration Precedence
//
// Values are loaded in this order (later sources override earlier ones):
//
//  1. Default values
//  2. Configuration file(s) - multiple files merged left-to-right
//  3. Environment variables (ASSETGATE_ prefix)
//  4. CLI flags
//
// # Usage
//
//	cfg, err := config.Load([]string{"config.yaml"}, cmd.Flags())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Store in context for subcommands
//	ctx = config.WithContext(ctx, cfg)
//
//	// Retrieve later
//	cfg, err = config.FromContext(ctx)
//
// # Environment Variables
//
// All config keys map to environment variables with ASSETGATE_ prefix:
//   - server.port → ASSETGATE_SERVER_PORT
//   - storage.backend → ASSETGATE_STORAGE_BACKEND
//   - storage.bucket.secret_access_key → ASSETGATE_STORAGE_BUCKET_SECRET_ACCESS_KEY
//
// # Configuration Structure
//
// The Config struct contains:
//   - Server: port and timeouts
//   - Storage: backend (filesystem or bucket), directory path, bucket settings
//   - Request: header names carrying client address and country
//   - Diagnostics: slow request and large asset thresholds
//   - CORS: cross-origin resource sharing settings
//   - Metrics: Prometheus listener
//   - Log: logging level
//
// # Validation
//
// Configuration is validated using struct tags:
//   - Port must be 1-65535
//   - Backend must be filesystem or bucket
//   - The bucket backend requires storage.bucket.name
//   - Log level must be debug, info, warn, or error
package config
