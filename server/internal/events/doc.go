// Package events publishes every computed report to a Kafka topic so
// downstream consumers (MES bridge, dashboards) see audits as they finish.
//
// Publish never blocks the calculation path: reports are buffered in memory
// and Run drains the buffer, retrying broker errors with exponential backoff.
// When the buffer is full the oldest report is dropped.
package events
