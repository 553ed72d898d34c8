// Package runner is the server-side calculation flow shared by the HTTP API
// and the gRPC service.
//
// For each request it runs the calculation engine, evaluates the part's
// limits for the resolved tub type, wraps everything in a types.Report with a
// fresh run id, stores it, and fans it out to the configured sinks (alert
// notifier, Kafka publisher, WebSocket hub).
package runner
