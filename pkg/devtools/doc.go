// Package devtools serves an HTTP view into a running host.
//
// Routes:
//
//	GET    /healthz                              liveness
//	GET    /api/host                             host ID and commit counters
//	GET    /api/instances                        instance tree
//	GET    /api/instances/{id}                   one instance with its cells
//	GET    /api/instances/{id}/output            last committed output
//	POST   /api/instances/{id}/actions/{action}  trigger an action
//	DELETE /api/instances/{id}                   unmount an instance
//	GET    /ws                                   commit stream (WebSocket)
//	GET    /metrics                              Prometheus, when a gatherer is set
//
// The WebSocket stream first sends a snapshot message, then one commit
// message per committed pass or unmount:
//
//	{"type":"snapshot","instances":[...]}
//	{"type":"commit","commit":{"instance":1,"component":"Counter","pass":2,...}}
//
// Usage:
//
//	srv := devtools.New(h, devtools.WithGatherer(registry))
//	defer srv.Close()
//	http.ListenAndServe("localhost:7070", srv)
package devtools
