// Package retry provides fixed-delay retry logic for transient failures.
//
// The [WithFixedDelay] function retries an operation with a configurable
// attempt limit and a fixed delay between attempts. The delay is
// deliberately fixed rather than exponential: guarded operations are short,
// idempotent shell commands or single network roundtrips, so backoff
// sophistication buys nothing here.
package retry
