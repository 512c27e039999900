// Package retry retries operations that fail with transient network errors, waiting
// an exponentially growing, jittered delay between attempts.
package retry
