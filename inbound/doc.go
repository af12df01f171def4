// Package inbound handles push notifications the backend sends about
// session state: revocations, extensions, and token rotations.
//
// Deliveries use claim/complete/fail idempotency semantics so transient
// handler failures remain retryable while duplicates are absorbed.
package inbound
