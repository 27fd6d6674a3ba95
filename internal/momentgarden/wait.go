package momentgarden

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/schollz/progressbar/v3"
)

// Waiter sleeps between requests.
type Waiter interface {
	Wait(ctx context.Context, d time.Duration, message string) error
}

// SilentWaiter sleeps without output.
type SilentWaiter struct{}

// Wait blocks for d or until ctx is done.
func (SilentWaiter) Wait(ctx context.Context, d time.Duration, _ string) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// SpinnerWaiter shows a spinner with the seconds left, for terminals.
type SpinnerWaiter struct {
	Out io.Writer
}

// Wait blocks for d or until ctx is done, refreshing the countdown every
// second.
func (w SpinnerWaiter) Wait(ctx context.Context, d time.Duration, message string) error {
	deadline := time.Now().Add(d)
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(w.Out),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetDescription(countdown(message, d)),
		progressbar.OptionClearOnFinish(),
	)
	defer func() { _ = bar.Finish() }()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil
		}
		bar.Describe(countdown(message, remaining))
		_ = bar.Add(1)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func countdown(message string, remaining time.Duration) string {
	secs := int((remaining + time.Second - 1) / time.Second)
	return fmt.Sprintf("%s (%d seconds)", message, secs)
}
