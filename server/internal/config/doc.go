// Package config loads the server configuration from config.yaml.
//
// Sections:
//   - server: gRPC/HTTP ports, API-key auth, result TTL, request timeout, CORS origins
//   - profiles: calibration profile file and whether to hot-reload it
//   - database: environment variable holding the Postgres DSN
//   - kafka: brokers, topic and buffer size for result events
//   - webhooks: failed-audit notification targets
//
// Secrets never appear in the file; only the names of the environment
// variables that hold them do. Load(path) applies defaults before
// unmarshalling, then validates.
package config
