// Package config loads the dashsync YAML configuration.
package config
