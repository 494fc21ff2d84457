package cli

import (
	"fmt"
	"io"
	"os"
	"time"
)

// progressStep reports one slow step on stderr. A nil step is a no-op, so
// callers never check whether progress output is enabled.
type progressStep struct {
	out     io.Writer
	started time.Time
}

func startProgress(label string) *progressStep {
	if !progressEnabled() {
		return nil
	}
	return newProgress(os.Stderr, label)
}

func newProgress(out io.Writer, label string) *progressStep {
	fmt.Fprintf(out, "%s... ", label)
	return &progressStep{out: out, started: time.Now()}
}

// Done finishes the step, optionally with a short summary such as "11 templates".
func (p *progressStep) Done(summary ...string) {
	if p == nil {
		return
	}
	elapsed := formatDuration(time.Since(p.started))
	if len(summary) > 0 && summary[0] != "" {
		fmt.Fprintf(p.out, "%s: %s (%s)\n", styles().OK.Render("done"), summary[0], elapsed)
		return
	}
	fmt.Fprintf(p.out, "%s (%s)\n", styles().OK.Render("done"), elapsed)
}

func (p *progressStep) Fail(err error) {
	if p == nil {
		return
	}
	if err != nil {
		fmt.Fprintf(p.out, "%s: %v\n", styles().Error.Render("failed"), err)
		return
	}
	fmt.Fprintln(p.out, styles().Error.Render("failed"))
}

func progressEnabled() bool {
	switch {
	case noProgress, IsJSONOutput(), IsJSONLOutput():
		return false
	}
	for _, key := range []string{"SWIFT_PROMPTER_NO_PROGRESS", "NO_PROGRESS"} {
		if _, ok := os.LookupEnv(key); ok {
			return false
		}
	}
	return true
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return d.String()
	case d < time.Second:
		return d.Round(10 * time.Millisecond).String()
	default:
		return d.Round(100 * time.Millisecond).String()
	}
}
