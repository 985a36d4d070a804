// Package runner drives a mapping over a stream of events.
//
// # Execution Model
//
// Input is newline-delimited JSON: one object per line. Each event is
// decoded, stamped with a seq from a logical clock, run through the
// mapping, and written to the output as one JSON line.
//
// A failing mapping leaves the event partially mutated. The runner logs
// the failure and, by default, still emits that partial event. With
// DropOnError the event is dropped instead. Either way the input, the
// output and the error text are recorded when a store is attached.
//
// Events are processed one at a time, in input order. Seqs start at 1
// for every run and never depend on wall-clock time, so a recorded run
// can be replayed and compared hash by hash.
//
// # Replay
//
// Replay re-executes the recorded inputs of a run with a mapping and
// reports every event whose output hash or error text differs from the
// recording.
package runner
