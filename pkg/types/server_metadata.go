// Package types defines the JSON payloads exchanged over the winbridge
// HTTP surface.
package types

// ServerMetadata is returned by the /metadata endpoint.
type ServerMetadata struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}
