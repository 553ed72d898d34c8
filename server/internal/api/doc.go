// Package api implements the HTTP REST API of cfacal-server.
//
// New(opts) returns a Handler (a gorilla/mux router) that serves:
//
//	GET  /api/v1/health                 store, catalog and database status
//	POST /api/v1/calculations           run a calculation, returns ReportResponse
//	GET  /api/v1/reports                stored report summaries, newest first
//	GET  /api/v1/reports/{auditId}      one stored report; 404 if unknown or evicted
//	GET  /api/v1/audits?serial=&limit=  audits recorded in the database
//	GET  /api/v1/parts                  calibrated parts
//	GET  /api/v1/parts/{part}/limits    limits for ?tub_type= and ?task=
//	GET  /api/v1/visual-checks          checklist for ?ca=&serial_no=&task=
//	POST /api/v1/results                persist operator results (201)
//	GET  /api/v1/alerts                 alerts of the last 24h
//	     /ws                            WebSocket stream (see package ws)
//	GET  /metrics                       Prometheus exposition
//
// Calculation errors map to 400 (bad request), 404 (unknown audit), 422
// (uncalibrated part or unsegmentable telemetry), 504 (timeout) and 500.
// Every error body is {"error": "...", "detail": "..."}.
package api
