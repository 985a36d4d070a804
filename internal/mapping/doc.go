// Package mapping implements the statement-execution engine of the remap
// language.
//
// A Mapping is an ordered, immutable list of Statements. Execute applies
// them one by one to a single event.
//
// EXECUTION MODEL:
//
// Sequential and fail-fast:
//   - Statements run in declaration order, index 0 first
//   - The first failing statement stops execution; later statements never run
//   - Effects of statements that already succeeded stay in the event.
//     There is no rollback: callers receive a partially transformed event
//     together with the error
//
// Concurrency:
//   - A Mapping holds no execution-time state and may be executed from many
//     goroutines at once, each on its own event
//   - An event must not be touched by anyone else while Execute runs
//
// ERRORS:
//
// Statement failures are StatementErrors carrying a Code and a fixed
// message. Execute wraps the first failure in an ApplyError whose text is
// "failed to apply mapping {index}: {message}". That text is user facing
// and must not change.
package mapping
