// Package config provides configuration structures and utilities for gamescan.
// It defines the main configuration options for source scanning, pipeline
// behavior, and report generation preferences.
package config
