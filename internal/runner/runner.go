package runner

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/remap/internal/event"
	"github.com/roach88/remap/internal/mapping"
	"github.com/roach88/remap/internal/store"
)

// maxLineSize bounds a single NDJSON line.
const maxLineSize = 64 << 20

// Runner executes one mapping over event streams.
//
// A Runner holds no per-run state; each Process call is an independent
// run with its own run ID and clock.
type Runner struct {
	mapping     *mapping.Mapping
	source      []byte
	store       *store.Store
	ids         RunIDGenerator
	newClock    func() Clock
	dropOnError bool
	logger      *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithStore records every run and result in st.
func WithStore(st *store.Store) Option {
	return func(r *Runner) { r.store = st }
}

// WithRunIDGenerator overrides the UUIDv7 run ID generator.
func WithRunIDGenerator(g RunIDGenerator) Option {
	return func(r *Runner) { r.ids = g }
}

// WithClock overrides the per-run clock factory.
func WithClock(newClock func() Clock) Option {
	return func(r *Runner) { r.newClock = newClock }
}

// WithDropOnError drops events whose mapping failed instead of emitting
// them partially mutated.
func WithDropOnError(drop bool) Option {
	return func(r *Runner) { r.dropOnError = drop }
}

// WithLogger sets the logger for run diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// New creates a runner for m. source is the mapping's program text; it is
// hashed and stored with each run so the run can be replayed later.
func New(m *mapping.Mapping, source []byte, opts ...Option) *Runner {
	r := &Runner{
		mapping:  m,
		source:   source,
		ids:      UUIDv7Generator{},
		newClock: func() Clock { return NewClock() },
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Summary describes a finished run.
type Summary struct {
	RunID     string `json:"run_id"`
	Processed int    `json:"processed"`
	Failed    int    `json:"failed"`
	Dropped   int    `json:"dropped"`
}

// Process reads NDJSON events from in, applies the mapping to each and
// writes the results to out.
//
// Mapping failures are not returned: they are logged, counted and
// recorded. An output that cannot be encoded as JSON (e.g. a non-finite
// float) fails its event the same way and is dropped. Process returns an
// error only for malformed input, I/O and store failures, or context
// cancellation; output for events already processed is still flushed.
func (r *Runner) Process(ctx context.Context, in io.Reader, out io.Writer) (summary Summary, err error) {
	summary.RunID = r.ids.Generate()
	logger := r.logger.With("run_id", summary.RunID)
	clock := r.newClock()

	if r.store != nil {
		_, err := r.store.WriteRun(ctx, store.Run{
			ID:            summary.RunID,
			MappingHash:   event.HashSource(r.source),
			MappingSource: string(r.source),
		})
		if err != nil {
			return summary, err
		}
	}

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	w := bufio.NewWriter(out)
	defer func() {
		if flushErr := w.Flush(); flushErr != nil {
			err = errors.Join(err, fmt.Errorf("write output: %w", flushErr))
		}
	}()

	line := 0
	for scanner.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		data := bytes.TrimSpace(scanner.Bytes())
		if len(data) == 0 {
			continue
		}

		ev, err := event.ParseJSON(data)
		if err != nil {
			return summary, fmt.Errorf("line %d: %w", line, err)
		}

		res, encoded, err := r.apply(ctx, summary.RunID, clock.Next(), ev, data)
		if err != nil {
			return summary, err
		}

		summary.Processed++
		if res.Error != "" {
			summary.Failed++
			logger.Warn("mapping failed", "seq", res.Seq, "error", res.Error)
		}
		if res.Dropped {
			summary.Dropped++
			continue
		}
		if _, err := w.Write(append(encoded, '\n')); err != nil {
			return summary, fmt.Errorf("write output: %w", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return summary, fmt.Errorf("read input: %w", err)
	}

	logger.Debug("run complete",
		"processed", summary.Processed,
		"failed", summary.Failed,
		"dropped", summary.Dropped)
	return summary, nil
}

// apply executes the mapping on ev, encodes the output and records the
// result. raw is the input line ev was parsed from.
func (r *Runner) apply(ctx context.Context, runID string, seq int64, ev *event.Event, raw []byte) (store.Result, []byte, error) {
	res := store.Result{RunID: runID, Seq: seq, Output: ev}
	if r.store != nil {
		res.Input = ev.Clone()
		res.RawInput = bytes.Clone(raw)
	}

	if err := r.mapping.Execute(ev); err != nil {
		res.Error = err.Error()
		res.Dropped = r.dropOnError
	}

	encoded, err := outputJSON(ev)
	if err != nil {
		res.Error = joinErrorText(res.Error, err.Error())
		res.Dropped = true
		res.Output = event.New()
		encoded = nil
	}

	if r.store != nil {
		if err := r.store.WriteResult(ctx, res); err != nil {
			return res, nil, fmt.Errorf("seq %d: %w", seq, err)
		}
	}
	return res, encoded, nil
}

// outputJSON encodes an event for output. It fails on values JSON cannot
// carry, such as non-finite floats.
func outputJSON(ev *event.Event) ([]byte, error) {
	encoded, err := ev.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encode output: %w", err)
	}
	return encoded, nil
}

func joinErrorText(first, second string) string {
	if first == "" {
		return second
	}
	return first + "; " + second
}
