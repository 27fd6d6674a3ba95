package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"goodmorning/internal/config"
	"goodmorning/internal/momentgarden"
	"goodmorning/internal/tasks"
	"goodmorning/internal/textutil"
)

const userAgent = "goodmorning/1.0"

// maxListed bounds how many failures are spelled out in one message.
const maxListed = 5

// Service defines the notifications sent by commands.
type Service interface {
	NotifyRunCompleted(ctx context.Context, summary *tasks.Summary) error
	NotifyMomentsCompleted(ctx context.Context, reports []momentgarden.GardenReport) error
	NotifyError(ctx context.Context, err error, label string) error
	TestNotification(ctx context.Context) error
}

// NewService builds an ntfy-backed service, or a no-op one when no topic is
// configured.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}
	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint:     topic,
		client:       &http.Client{Timeout: timeout},
		runSummary:   cfg.Notifications.RunSummary,
		onlyFailures: cfg.Notifications.OnlyFailures,
		downloads:    cfg.Notifications.Downloads,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint     string
	client       *http.Client
	runSummary   bool
	onlyFailures bool
	downloads    bool
}

func (n *ntfyService) NotifyRunCompleted(ctx context.Context, summary *tasks.Summary) error {
	if !n.runSummary || summary == nil {
		return nil
	}
	succeeded, failed, skipped := summary.Counts()
	if failed == 0 && n.onlyFailures {
		return nil
	}
	profile := textutil.Title(summary.Profile)
	duration := roundDuration(summary.Duration)

	data := payload{tags: []string{"goodmorning", summary.Profile}}
	var b strings.Builder
	if failed == 0 {
		data.title = fmt.Sprintf("%s - Done", profile)
		data.tags = append(data.tags, "completed")
		fmt.Fprintf(&b, "✅ %d tasks ok, %d skipped in %s", succeeded, skipped, duration)
	} else {
		data.title = fmt.Sprintf("%s - %d Failed", profile, failed)
		data.tags = append(data.tags, "failed")
		data.priority = "high"
		fmt.Fprintf(&b, "❌ %d failed, %d ok, %d skipped in %s", failed, succeeded, skipped, duration)
		for i, r := range summary.Failures() {
			if i == maxListed {
				fmt.Fprintf(&b, "\n…and %d more", failed-maxListed)
				break
			}
			fmt.Fprintf(&b, "\n- %s: %s", r.Path, firstLine(r.Error))
		}
	}
	data.message = b.String()
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyMomentsCompleted(ctx context.Context, reports []momentgarden.GardenReport) error {
	if !n.downloads {
		return nil
	}
	var downloaded, errCount int
	var failedGardens []string
	for _, r := range reports {
		downloaded += r.Downloads.Downloaded
		errCount += len(r.Downloads.Errors)
		if r.Err != "" || len(r.Downloads.Errors) > 0 {
			failedGardens = append(failedGardens, r.Garden)
		}
	}
	if len(failedGardens) == 0 && (n.onlyFailures || downloaded == 0) {
		return nil
	}
	data := payload{
		title:   "Moment Garden - Synced",
		message: fmt.Sprintf("📷 Downloaded %d files", downloaded),
		tags:    []string{"goodmorning", "moment-garden"},
	}
	if len(failedGardens) > 0 {
		data.title = "Moment Garden - Errors"
		data.message = fmt.Sprintf("📷 Downloaded %d files with %d errors (%s)", downloaded, errCount, strings.Join(failedGardens, ", "))
		data.priority = "high"
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, label string) error {
	var builder strings.Builder
	builder.WriteString("❌ Error")
	if label = strings.TrimSpace(label); label != "" {
		builder.WriteString(" with ")
		builder.WriteString(label)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}
	return n.send(ctx, payload{
		title:    "goodmorning - Error",
		message:  builder.String(),
		tags:     []string{"goodmorning", "error"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "goodmorning - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"goodmorning", "test"},
		priority: "low",
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func roundDuration(d time.Duration) string {
	d = d.Round(time.Second)
	if d <= 0 {
		return "0s"
	}
	return d.String()
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return textutil.Truncate(s, 120)
}

type noopService struct{}

func (noopService) NotifyRunCompleted(context.Context, *tasks.Summary) error { return nil }
func (noopService) NotifyMomentsCompleted(context.Context, []momentgarden.GardenReport) error {
	return nil
}
func (noopService) NotifyError(context.Context, error, string) error { return nil }
func (noopService) TestNotification(context.Context) error           { return nil }
