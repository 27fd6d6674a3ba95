package checks

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"goodmorning/internal/logging"
)

var (
	uptimeUnderHour = regexp.MustCompile(`[0-9]+:[0-9]+\s*up [0-9]+ (mins?|secs?|hrs?),`)
	uptimeUnderDay  = regexp.MustCompile(`[0-9]+:[0-9]+\s*up [0-9]+:[0-9]+,`)
	uptimeDays      = regexp.MustCompile(`[0-9]+:[0-9]+\s*up ([0-9]+) days?`)
)

// ParseUptimeDays extracts whole days of uptime from `uptime` output. Hosts
// up for less than a day report 0.
func ParseUptimeDays(output string) (int, error) {
	output = strings.TrimSpace(output)
	if uptimeUnderHour.MatchString(output) || uptimeUnderDay.MatchString(output) {
		return 0, nil
	}
	m := uptimeDays.FindStringSubmatch(output)
	if m == nil {
		return 0, fmt.Errorf("could not parse uptime output %q", output)
	}
	days, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, fmt.Errorf("parse uptime days %q: %w", m[1], err)
	}
	return days, nil
}

// Uptime fails when the machine has been up longer than max_days (10).
func Uptime(ctx context.Context, env *Env, params Params) error {
	maxDays, err := params.Int("max_days", 10)
	if err != nil {
		return err
	}
	res, err := env.run(ctx, "uptime")
	if err != nil {
		return err
	}
	days, err := ParseUptimeDays(res.Stdout)
	if err != nil {
		return err
	}
	if days > maxDays {
		return fmt.Errorf("machine has been up for %d days (> %d), consider restarting it", days, maxDays)
	}
	return nil
}

// ParseDiskPercent finds the `df -h` line for mount and returns its
// capacity column as a percentage.
func ParseDiskPercent(output, mount string) (int, error) {
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 6 || fields[len(fields)-1] != mount {
			continue
		}
		percent, err := strconv.Atoi(strings.TrimSuffix(fields[4], "%"))
		if err != nil {
			return 0, fmt.Errorf("parse disk capacity from line %q: %w", line, err)
		}
		return percent, nil
	}
	return 0, fmt.Errorf("could not find mount %s in df output", mount)
}

// DiskSpace fails when the volume at mount is more than max_percent full.
func DiskSpace(ctx context.Context, env *Env, params Params) error {
	mount, err := params.String("mount", "/System/Volumes/Data")
	if err != nil {
		return err
	}
	maxPercent, err := params.Int("max_percent", 80)
	if err != nil {
		return err
	}
	res, err := env.run(ctx, "df", "-h")
	if err != nil {
		return err
	}
	percent, err := ParseDiskPercent(res.Stdout, mount)
	if err != nil {
		return err
	}
	if percent > maxPercent {
		return fmt.Errorf("%d%% disk used (over %d%%); run something like 'dir-sizes /Applications/* ~/*' to see what is using it", percent, maxPercent)
	}
	return nil
}

// DesktopClutter fails when a directory (default ~/Desktop) holds more than
// max_items entries.
func DesktopClutter(_ context.Context, env *Env, params Params) error {
	dir, err := params.String("dir", filepath.Join(env.Home, "Desktop"))
	if err != nil {
		return err
	}
	maxItems, err := params.Int("max_items", 20)
	if err != nil {
		return err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read %s: %w", dir, err)
	}
	if len(entries) > maxItems {
		return fmt.Errorf("more than %d items in %s: found %d", maxItems, dir, len(entries))
	}
	return nil
}

// WaitForHost pings host until it answers, blocking later tasks until a VPN
// or network link is up.
func WaitForHost(ctx context.Context, env *Env, params Params) error {
	host, err := params.String("host", "")
	if err != nil {
		return err
	}
	if strings.TrimSpace(host) == "" {
		return errors.New("wait-for-host: host param is required")
	}
	pingArgs, err := params.Strings("ping_args", []string{"-c1", "-t1"})
	if err != nil {
		return err
	}
	interval, err := params.Duration("interval", 5*time.Second)
	if err != nil {
		return err
	}
	timeout, err := params.Duration("timeout", 2*time.Minute)
	if err != nil {
		return err
	}
	if interval <= 0 {
		return errors.New("wait-for-host: interval must be positive")
	}
	totalAttempts := int(timeout / interval)

	args := append(append([]string(nil), pingArgs...), host)
	for attempt := 0; ; attempt++ {
		if _, err := env.run(ctx, "ping", args...); err == nil {
			return nil
		} else if ctx.Err() != nil {
			return ctx.Err()
		}
		if attempt >= totalAttempts {
			return fmt.Errorf("%s unreachable after %s: %w", host, timeout, ErrTimeout)
		}
		env.logger().Debug("host not reachable yet",
			logging.String("host", host),
			logging.Int("attempt", attempt+1),
			logging.Int("attempts", totalAttempts),
		)
		if err := env.sleep(ctx, interval); err != nil {
			return err
		}
	}
}

// XcodePath makes sure the active developer directory is path, switching it
// with sudo when needed.
func XcodePath(ctx context.Context, env *Env, params Params) error {
	want, err := params.String("path", "/Applications/Xcode.app/Contents/Developer")
	if err != nil {
		return err
	}
	current, err := xcodeSelectPath(ctx, env)
	if err != nil {
		return err
	}
	if current == want {
		return nil
	}
	if _, err := env.sudo(ctx, "sudo", "xcode-select", "-s", want); err != nil {
		return fmt.Errorf("switch xcode path: %w", err)
	}
	current, err = xcodeSelectPath(ctx, env)
	if err != nil {
		return err
	}
	if current != want {
		return fmt.Errorf("could not change xcode path: still %q", current)
	}
	return nil
}

func xcodeSelectPath(ctx context.Context, env *Env) (string, error) {
	res, err := env.run(ctx, "xcode-select", "--print-path")
	if err != nil {
		return "", err
	}
	path := strings.TrimSpace(res.Stdout)
	if path == "" {
		return "", fmt.Errorf("could not get current xcode path (stderr=%q)", strings.TrimSpace(res.Stderr))
	}
	return path, nil
}

// KeychainSecret reads a password from the macOS keychain into a secret
// variable unless it was already supplied on the command line.
func KeychainSecret(ctx context.Context, env *Env, params Params) error {
	account, err := params.String("account", "ldap_pass")
	if err != nil {
		return err
	}
	variable, err := params.String("var", env.SecretVar)
	if err != nil {
		return err
	}
	if variable == "" {
		return errors.New("keychain-secret: no variable to store the secret in")
	}
	if v, ok := env.State.Var(variable); ok && v != "" {
		return nil
	}
	res, err := env.run(ctx, "security", "find-generic-password", "-ga", account, "-w")
	if err != nil {
		return fmt.Errorf("read keychain item %s: %w", account, err)
	}
	secret := strings.TrimSpace(res.Stdout)
	if secret == "" {
		return fmt.Errorf("keychain item %s is empty", account)
	}
	env.State.SetSecret(variable, secret)
	return nil
}
