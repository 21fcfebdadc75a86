// Package messaging publishes broker-agnostic envelopes.
//
// Business code depends on Publisher only. The driver (Kafka, NATS, NSQ,
// Google Pub/Sub, or the slog-backed "log" driver for local runs) is chosen
// from configuration through NewFromDriver.
package messaging
