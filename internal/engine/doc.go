// Package engine keeps one filtered list screen in sync with the API.
//
// An Engine owns the criteria for a screen, a debounce.Debouncer, a Resolver
// and a state.Store. Criteria edits schedule a debounced settle. A settle
// builds a filter.Descriptor; if the criteria short-circuit it clears the
// store without a request, otherwise it issues a token and runs the request
// through fetch.Client in the background. Only the response carrying the
// current token is applied, so out-of-order arrivals never overwrite newer
// results.
//
// Optimistic edits go through ApplyMutation or Toggle and are visible at
// once. Kinds with a Persist function are sent in the background and folded
// in or rolled back when it returns; other kinds stay local for the session
// and keep overriding the server value until it agrees.
//
// Close stops the debouncer, discards in-flight responses, cancels retry
// waits and waits for background work.
package engine
