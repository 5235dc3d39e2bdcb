// Package timeouts defines shared timeout constants used by donations
// processes.
package timeouts

import "time"

// ReadHeader limits how long the HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Request caps the time a single API request may take end to end.
const Request = 15 * time.Second

// Shutdown limits how long servers wait for in-flight requests during
// graceful shutdown.
const Shutdown = 5 * time.Second

// HealthDial caps the wait when the healthcheck probe dials the gRPC health
// endpoint.
const HealthDial = 2 * time.Second

// TelemetryFlush bounds the final trace export when a process exits.
const TelemetryFlush = 5 * time.Second
