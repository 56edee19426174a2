package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jacoelho/crator/internal/config"
	"github.com/jacoelho/crator/internal/crates"
	"github.com/jacoelho/crator/internal/executor"
	"github.com/jacoelho/crator/internal/exit"
	"github.com/jacoelho/crator/internal/output"
	"github.com/jacoelho/crator/internal/ratelimit"
)

// Runner looks up every configured crate and reports the results.
type Runner struct {
	client    *crates.Client
	config    *config.Config
	output    io.Writer
	errOutput io.Writer
}

// New creates a Runner from cfg.
func New(cfg *config.Config) (*Runner, *exit.Result) {
	httpClient, err := cfg.HTTPClient()
	if err != nil {
		return nil, exit.Errorf("Error creating runner: %v\n", err)
	}

	client := crates.NewClient(httpClient, ratelimit.New(cfg.RateLimit), cfg.Registry, cfg.Queries)

	return &Runner{
		client:    client,
		config:    cfg,
		output:    os.Stdout,
		errOutput: os.Stderr,
	}, nil
}

func (r *Runner) SetOutput(w io.Writer) {
	r.output = w
}

func (r *Runner) SetErrorOutput(w io.Writer) {
	r.errOutput = w
}

func (r *Runner) payloadWriter() io.Writer {
	if r.output == nil {
		return io.Discard
	}
	return r.output
}

func (r *Runner) errorWriter() io.Writer {
	if r.errOutput == nil {
		return io.Discard
	}
	return r.errOutput
}

func (r *Runner) logf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.errorWriter(), format, args...)
}

func (r *Runner) debugf(format string, args ...any) {
	if r.config.Debug {
		r.logf(format, args...)
	}
}

// Run looks up the crates in order and writes the summary. It returns 0
// when every lookup succeeded.
func (r *Runner) Run(ctx context.Context) int {
	summary, err := r.Execute(ctx, r.config.Crates)
	if err != nil {
		r.logf("\nInterrupted after %d of %d crates\n", len(summary.Results), len(r.config.Crates))
		return exit.CodeFailure
	}

	if err := summary.Format(r.config.Format, r.payloadWriter()); err != nil {
		r.logf("Error formatting results: %v\n", err)
		return exit.CodeFailure
	}

	if summary.HasErrors() {
		return exit.CodeFailure
	}
	return exit.CodeOK
}

// Execute looks up each crate through the executor. Lookup failures are
// recorded in the summary; only cancellation of ctx stops the loop.
func (r *Runner) Execute(ctx context.Context, names []string) (*output.Summary, error) {
	s := output.NewSummary(len(names))
	overallStart := time.Now()

	for _, name := range names {
		select {
		case <-ctx.Done():
			s.SetTotalDuration(time.Since(overallStart))
			return s, ctx.Err()
		default:
		}

		start := time.Now()
		result, stats := executor.Run(r.client.Lookup(ctx, name))
		duration := time.Since(start)

		if result.Err != nil {
			r.debugf("[%s] failed after %d ms (polls=%d spins=%d yields=%d): %v\n",
				name, duration.Milliseconds(), stats.Polls, stats.Spins, stats.Yields, result.Err)
		} else {
			info := result.Value
			r.debugf("[%s] request %s: status %d, %d bytes in %d ms (polls=%d spins=%d yields=%d)\n",
				name, info.RequestID, info.StatusCode, info.BodySize, info.Elapsed.Milliseconds(),
				stats.Polls, stats.Spins, stats.Yields)
		}

		s.Add(output.CrateResult{
			Crate:    name,
			Info:     result.Value,
			Duration: duration,
			Error:    result.Err,
		})
	}

	s.SetTotalDuration(time.Since(overallStart))
	return s, nil
}
