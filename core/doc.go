// Package core implements the wallet session orchestration layer: the
// provider contract, session and token lifecycle, version-tagged resource
// caching, backend session exchange, and redirect reconciliation.
//
// All session mutations funnel through the Service transition function so
// observers always see fully-formed snapshots. The redirect attempt guard
// is the only process-wide mutable state in the package; everything else
// is owned by a Service instance.
package core
