// Package harness runs scenario tests for remap mapping programs.
//
// A scenario pairs one mapping program with a list of input events and
// what each should turn into. The harness runs the cases through the same
// runner and store the CLI uses, then checks the recorded results.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	mapping: ../mappings/tag.cue   # relative to the scenario file
//	run_id: test-run-1             # optional, for golden comparison
//	drop_on_error: false
//	cases:
//	  - name: tags_event
//	    input: { message: "hi" }
//	    expect:
//	      event: { message: "hi", tagged: true }
//	  - name: fails_on_text
//	    input: { bar: "text" }
//	    expect:
//	      error: "failed to apply mapping 1: query returned non-boolean value"
//	      fields: { tagged: true }
//	      absent: [ "baz" ]
//
// Instead of a mapping file, a scenario may embed the program inline with
// `program:`.
//
// # Expectations
//
//   - event: the output must equal this object exactly
//   - error: the mapping error text; when omitted the case must succeed
//   - fields: path/value pairs the output must contain (subset match)
//   - absent: paths the output must not contain
//
// # Deterministic Testing
//
// Every scenario runs against a fresh in-memory SQLite store with a fixed
// run ID and a logical clock that starts at 1, so traces are identical
// across runs and can be compared against golden files.
package harness
