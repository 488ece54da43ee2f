// Package fetch executes request descriptors against a Transport with bounded
// retries.
//
// # Retry Policy
//
// A Policy allows MaxRetries+1 calls in total. Between calls the client waits
// Policy.Delay(n): a fixed BaseDelay, or BaseDelay*n with linear backoff.
// Any transport error is retried, including non-2xx statuses. A successful
// response with an empty item list is terminal and is not retried.
//
// # Results
//
// Execute never panics and never reports to a global handler. It returns a
// Result value carrying the descriptor's token, the payload and the number of
// attempts. When retries are exhausted Result.Err holds a *FetchError that
// wraps the last cause; callers decide how to present it.
//
// The token is copied from the descriptor and never changes across retries.
// The client knows nothing about supersession: the engine compares the token
// with its current one and drops stale results.
//
// # Cancellation
//
// Cancelling the context aborts the wait between attempts and the in-flight
// call (if the transport honours the context). The engine only cancels on
// teardown; a newer filter edit leaves older requests running and ignores
// their results.
package fetch
