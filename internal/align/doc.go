// Package align coordinates one alignment workflow: acquire the model
// from the cache, propose an initial transform, accept user adjustments,
// and commit or cancel. The Controller owns its session state
// exclusively; observers watch transitions through Subscribe, there is
// no shared mutable state outside it.
//
// Events for one session are processed strictly in issue order under a
// single mutex. The only suspension point is the asset load, which runs
// in a background goroutine; a session cancelled while its load is in
// flight releases the handle when the load eventually resolves, so the
// cache refcount returns to its pre-session value.
package align
