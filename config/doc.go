// Package config provides layered application configuration for the
// player core.
//
// Configuration is assembled from three layers, each overriding the
// one before it:
//
//  1. Built-in defaults (a working local setup)
//  2. Configuration files added via Loader.AddLayer, JSON or YAML
//  3. ECHOPLAYER_* environment variables
//
// The typed Config carries player-wide settings plus a per-service
// section mapping service names to registration metadata (enabled,
// priority, auto-start, dependencies) and free-form options that are
// handed to each service's initialize hook.
//
// Validation is opt-in through Loader.EnableValidation and reports
// configuration errors: an invalid file is a mistake for the operator
// to fix, not a condition to retry.
//
// SafeConfig wraps a Config for shared concurrent access; readers get
// deep copies and updates are validated before they replace the held
// configuration.
package config
