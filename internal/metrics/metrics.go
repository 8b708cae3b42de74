// Package metrics provides application-level counters using stdlib expvar.
package metrics

import "expvar"

// Operation counters.
var (
	TargetsCreated     = expvar.NewInt("diagraph_targets_created_total")
	TargetsMerged      = expvar.NewInt("diagraph_targets_merged_total")
	PinsCreated        = expvar.NewInt("diagraph_pins_created_total")
	LinksCreated       = expvar.NewInt("diagraph_links_created_total")
	ConnectionsCreated = expvar.NewInt("diagraph_connections_created_total")
	ParseFailures      = expvar.NewInt("diagraph_parse_failures_total")
	StoreMerges        = expvar.NewInt("diagraph_store_merges_total")
	IDCollisions       = expvar.NewInt("diagraph_id_collisions_total")
	UnpromotedTargets  = expvar.NewInt("diagraph_unpromoted_targets_total")
)

// Inc increments the given counter by 1.
func Inc(counter *expvar.Int) { counter.Add(1) }
