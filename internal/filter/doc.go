// Package filter holds the immutable search criteria used by directory
// screens and turns them into normalized request descriptors.
//
// Criteria values are replaced wholesale on every edit: Set returns a new
// value and never mutates the receiver. A field that is blank or equal to the
// All sentinel is unconstrained.
//
// A Shape describes one screen: the endpoint, which criteria fields become
// query parameters (in declaration order, so equal criteria always encode to
// the same query), which fields are matched on the client, and how the
// response payload is laid out. With SkipEmpty set, Build reports ok=false for
// fully unconstrained criteria and the caller shows an empty state instead of
// fetching every record.
package filter
