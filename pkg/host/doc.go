// Package host runs a hooks.Runtime on a single goroutine.
//
// The runtime itself is not safe for concurrent use: only state setters
// may be called from arbitrary goroutines. A Host owns the runtime, runs
// every other operation on its event loop and flushes after each one.
//
//	h := host.New(host.Config{})
//	go h.Run(ctx)
//
//	id, err := h.Mount(ctx, 0, "Counter", demos.Counter, nil)
//	err = h.Trigger(ctx, id, "increment")
//
// Host implements hooks.Renderer. Every commit and unmount is published
// to subscribers as a Commit event; pkg/devtools streams them over a
// WebSocket.
package host
