// Package metrics defines the Prometheus collectors for the receiver, the
// transmitter and the HTTP API.
package metrics
