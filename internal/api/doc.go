// Package api provides an HTTP client for the creative directory API.
//
// # Overview
//
// Client covers every endpoint the terminal client needs: peer discovery,
// coalitions, the project hub, collab circles, filter vocabularies, auth and
// profiles. It also satisfies fetch.Transport, so the sync engine can drive
// list screens through it with a filter.Descriptor.
//
//	client, err := api.NewClient("http://127.0.0.1:8000/api/v1", logger)
//	if err != nil {
//		return err
//	}
//	coalitions, err := client.ListCoalitions(ctx)
//
// # Request Handling
//
// All requests:
//   - Use context for cancellation
//   - Set Accept: application/json and User-Agent: breate/0.1
//   - Have a 10-second timeout
//   - Send a bearer token only on authenticated calls (profiles)
//
// Create and auth calls validate their input first and return a
// *ValidationError without touching the network.
//
// # Errors
//
// Non-2xx responses become *Error carrying the status and the server's
// detail message. The detail may be a plain string or a list of {msg}
// objects; both are flattened. UserMessage maps any error to what the user
// should see: validation text, the server's detail for rejections, or a
// generic unreachable message for transient faults.
//
// # Retries
//
// Single calls are not retried here. The engine retries list fetches through
// fetch.Client, and Vocabulary retries both option lists concurrently with
// fetch.Retry.
package api
