// Package ws implements the WebSocket hub of cfacal-server.
//
// Clients connected to /ws receive two kinds of frames:
//
//	{"event": "snapshot",    "data": [ /* store.Summary, newest first */ ]}
//	{"event": "calculation", "data": { /* types.Report */ }}
//
// A snapshot is sent on connect and then every interval. A calculation frame
// is pushed by Publish as soon as an audit has been computed, so QA screens
// update without polling.
package ws
