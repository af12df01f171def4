// Package auth implements the credential strategies the orchestrator uses
// to turn a connected wallet provider into a backend-verifiable credential:
// native identity tokens for providers that mint their own, and
// challenge-response signatures for providers that only hold a key.
package auth
