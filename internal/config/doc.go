// Package config provides configuration loading, merging, and validation
// facilities for the qre tooling.
//
// Configuration is assembled from multiple sources in the following priority
// order (earlier sources win for every field they set):
//  1. Command-line flags
//  2. Environment variables (QRE_ prefix)
//  3. JSON config file
//  4. Built-in defaults
//
// The main entry point is [GetStructuredConfig]; [BindFlags] registers the
// flag source on a cobra/pflag flag set.
package config
