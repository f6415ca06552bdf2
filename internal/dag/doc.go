// Package dag derives a directed dependency graph from a row snapshot and
// provides the traversals every downstream tool shares: ancestor and
// descendant closures, cycle enumeration, and leveled topological ordering.
//
// The graph is expected to be acyclic but never assumes it: cycles are
// reported, not fatal. All methods are pure reads over an immutable build,
// safe for concurrent use.
package dag
