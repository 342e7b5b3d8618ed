// Package publish forwards decoded packets and match results to an MQTT
// broker as JSON messages.
package publish
