// Package engine evaluates a backend-agnostic expression tree against
// concrete data sources. Backends integrate solely by registering handlers
// for five extension points (PreCompute, PostCompute, Optimize, ComputeUp,
// ComputeDown); the engine decides, per sub-expression, whether to hand
// the whole remaining tree to a ComputeDown handler or to materialize
// results bottom-up leaf by leaf, switching strategies whenever the data's
// runtime shape changes enough to break a backend's assumptions.
//
// The evaluation algorithm is single-threaded and synchronous. The
// handler registries are process-wide and append-only: register at
// startup, evaluate afterwards. Each top-level Compute call owns its own
// leaf-allocation state, so independent evaluations may run concurrently.
package engine
