// Package api defines the JSON types served by the inspection API.
package api

import "time"

// SessionSummary describes one relay session in list responses
type SessionSummary struct {
	ID          string    `json:"session_id"`
	DisplayName string    `json:"display_name"`
	StartedAt   time.Time `json:"started_at"`
	Connected   bool      `json:"connected"`
	RecordCount int       `json:"record_count"`
}

// CaptureRecord is the wire form of one captured payload
type CaptureRecord struct {
	// Offset is the duration since session start, in Go duration syntax
	Offset string `json:"offset"`

	// Direction is "client->server" or "server->client"
	Direction string `json:"direction"`

	// Size is the payload length in bytes
	Size int `json:"size"`

	// Payload is the hex encoding of the raw bytes
	Payload string `json:"payload"`
}

// CaptureResponse is the body of a session capture dump
type CaptureResponse struct {
	SessionID   string          `json:"session_id"`
	DisplayName string          `json:"display_name"`
	Records     []CaptureRecord `json:"records"`
}
