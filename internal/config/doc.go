// Package config provides configuration loading and validation for the
// 433MHz receiver and transmitter. It handles YAML-based configuration
// layered over the stock defaults, and builds the structured logger.
package config
