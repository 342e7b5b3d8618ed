// Package server implements the HTTP API used to monitor a running receiver:
// health, decoder statistics, the active configuration and Prometheus metrics.
package server
