// Package harness runs catalog scenarios: YAML files that drive the
// operation table step by step and assert on the envelopes it returns.
//
// # Scenario Format
//
//	name: publisher_lifecycle
//	description: "A publisher is created, edited and deprecated"
//	steps:
//	  - op: create_publisher
//	    as: alice
//	    input: { name: Acme, ... }
//	    save: { acme: id }
//	  - op: update_publisher
//	    as: bob
//	    input: { base: $acme, properties: { name: "Bob's" } }
//	    expect: { type: failure, error: Unauthorized }
//	assertions:
//	  - type: collection
//	    op: get_all_publishers
//	    contains: [$acme]
//
// A step without expect must succeed. save copies a value out of the
// success payload into a variable; "$name" anywhere in later input,
// expectations or assertions is replaced by that value, and "${name}"
// interpolates it into a longer string.
//
// # Assertion Types
//
//   - trace_contains: an operation appears in the trace, optionally with
//     a given outcome
//   - trace_order: operations appear in the given order
//   - trace_count: an operation appears exactly N times
//   - collection: an operation run after the steps returns a collection
//     with the given size and members
//
// # Deterministic Execution
//
// Every scenario runs against a fresh in-memory store with a logical
// clock (testutil.DeterministicClock) and sequential request ids, so the
// same scenario always writes the same records and produces a
// byte-identical trace for golden comparison.
package harness
