// Package devserver serves an in-memory copy of the directory API for local
// development and end-to-end tests.
//
// Routes live under /api/v1 and mirror the production service: peer search
// on /discover/ (name substring, archetype_id, tier_id), the /archetypes/ and
// /tiers/ vocabularies, coalitions and projects with create validation
// answered as 422 detail lists, collab circles, registration and login
// issuing HS256 access tokens over bcrypt password hashes, and profiles whose
// updates require a bearer token for the same user.
//
// Fault injection exercises the client's resilience: FailFirst answers the
// next N GET requests with 503 and Latency delays every request until it
// elapses or the caller gives up. Hits reports per-path request counts so
// tests can assert the number of attempts a retry policy made.
package devserver
