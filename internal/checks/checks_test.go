package checks_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"goodmorning/internal/checks"
	"goodmorning/internal/logging"
	"goodmorning/internal/runstate"
	"goodmorning/internal/testsupport"
)

func newEnv(t *testing.T, runner *testsupport.FakeRunner) *checks.Env {
	t.Helper()
	return &checks.Env{
		Runner:     runner,
		State:      runstate.New(nil),
		Logger:     logging.NewNop(),
		Home:       t.TempDir(),
		SudoHelper: "send-passwd-for-sudo",
		SecretVar:  "LDAP_PASS",
		Sleep:      func(context.Context, time.Duration) error { return nil },
	}
}

func TestParseUptimeDays(t *testing.T) {
	cases := []struct {
		output string
		want   int
	}{
		{"10:15  up 12 mins, 2 users, load averages: 1.0 1.2 1.3", 0},
		{"10:15  up 1 min, 2 users, load averages: 1.0 1.2 1.3", 0},
		{"10:15  up 4:02, 2 users, load averages: 1.0 1.2 1.3", 0},
		{"10:00  up 3 hrs, 2 users, load averages: 1.0 1.2 1.3", 0},
		{"10:00  up 1 hr, 2 users, load averages: 1.0 1.2 1.3", 0},
		{"10:00  up 12 days, 3 hrs, 2 users, load averages: 1.0 1.2 1.3", 12},
		{"10:15  up 1 day, 4:02, 2 users, load averages: 1.0 1.2 1.3", 1},
		{" 09:01:44 up 14 days,  3:11,  1 user,  load average: 0.00, 0.01, 0.05", 14},
	}
	for _, tc := range cases {
		got, err := checks.ParseUptimeDays(tc.output)
		if err != nil {
			t.Fatalf("ParseUptimeDays(%q): %v", tc.output, err)
		}
		if got != tc.want {
			t.Fatalf("ParseUptimeDays(%q) = %d, want %d", tc.output, got, tc.want)
		}
	}

	if _, err := checks.ParseUptimeDays("garbage"); err == nil {
		t.Fatal("expected parse error for unrecognised output")
	}
}

func TestUptimeFailsAfterMaxDays(t *testing.T) {
	runner := testsupport.NewFakeRunner().
		On("uptime", testsupport.Response{Stdout: "10:15  up 12 days, 4:02, 2 users\n"})
	env := newEnv(t, runner)

	err := checks.Uptime(context.Background(), env, checks.Params{})
	if err == nil || !strings.Contains(err.Error(), "12 days") {
		t.Fatalf("expected uptime failure, got %v", err)
	}
	if err := checks.Uptime(context.Background(), env, checks.Params{"max_days": int64(20)}); err != nil {
		t.Fatalf("expected uptime within limit, got %v", err)
	}
}

func TestParseDiskPercent(t *testing.T) {
	output := `Filesystem       Size   Used  Avail Capacity iused ifree %iused  Mounted on
/dev/disk3s1s1  460Gi   10Gi  200Gi     5%  404k  2.1G    0%   /
/dev/disk3s5    460Gi  300Gi  200Gi    61%  1.2M  2.1G    0%   /System/Volumes/Data
`
	got, err := checks.ParseDiskPercent(output, "/System/Volumes/Data")
	if err != nil {
		t.Fatalf("ParseDiskPercent: %v", err)
	}
	if got != 61 {
		t.Fatalf("got %d, want 61", got)
	}
	if _, err := checks.ParseDiskPercent(output, "/Volumes/Missing"); err == nil {
		t.Fatal("expected error for missing mount")
	}
}

func TestDiskSpaceOverLimit(t *testing.T) {
	runner := testsupport.NewFakeRunner().On("df -h", testsupport.Response{
		Stdout: "Filesystem Size Used Avail Use% Mounted on\n/dev/sda1 100G 90G 10G 90% /\n",
	})
	env := newEnv(t, runner)
	err := checks.DiskSpace(context.Background(), env, checks.Params{"mount": "/"})
	if err == nil || !strings.Contains(err.Error(), "90% disk used") {
		t.Fatalf("expected disk space failure, got %v", err)
	}
}

func TestDesktopClutter(t *testing.T) {
	env := newEnv(t, testsupport.NewFakeRunner())
	desktop := filepath.Join(env.Home, "Desktop")
	for i := range 3 {
		testsupport.WriteFile(t, filepath.Join(desktop, fmt.Sprintf("file-%d.txt", i)), 1)
	}

	if err := checks.DesktopClutter(context.Background(), env, checks.Params{}); err != nil {
		t.Fatalf("expected default limit to pass, got %v", err)
	}
	err := checks.DesktopClutter(context.Background(), env, checks.Params{"max_items": int64(2)})
	if err == nil || !strings.Contains(err.Error(), "found 3") {
		t.Fatalf("expected clutter failure, got %v", err)
	}
}

func TestBrewOutdatedUpgradesWithSudoHelper(t *testing.T) {
	runner := testsupport.NewFakeRunner().
		On("brew outdated", testsupport.Response{Stdout: "git\nffmpeg\n"})
	env := newEnv(t, runner)
	env.State.SetSecret("LDAP_PASS", "hunter2")

	if err := checks.BrewOutdated(context.Background(), env, checks.Params{}); err != nil {
		t.Fatalf("BrewOutdated: %v", err)
	}
	want := []string{"brew outdated", "send-passwd-for-sudo hunter2 brew upgrade"}
	if diff := cmp.Diff(want, runner.Calls()); diff != "" {
		t.Fatalf("unexpected calls (-want +got):\n%s", diff)
	}
}

func TestBrewOutdatedReportOnly(t *testing.T) {
	runner := testsupport.NewFakeRunner().
		On("brew outdated", testsupport.Response{Stdout: "git\nffmpeg\n"})
	env := newEnv(t, runner)

	err := checks.BrewOutdated(context.Background(), env, checks.Params{"upgrade": false})
	if err == nil || !strings.Contains(err.Error(), "git, ffmpeg") {
		t.Fatalf("expected outdated listing, got %v", err)
	}
	if len(runner.Calls()) != 1 {
		t.Fatalf("expected no upgrade, calls=%v", runner.Calls())
	}
}

func TestBrewDoctorSkipsChecks(t *testing.T) {
	runner := testsupport.NewFakeRunner().On("brew doctor --list-checks", testsupport.Response{
		Stdout: "check_for_config_scripts\ncheck_git_version\ncheck_xcode\n",
	})
	env := newEnv(t, runner)
	if err := checks.BrewDoctor(context.Background(), env, checks.Params{}); err != nil {
		t.Fatalf("BrewDoctor: %v", err)
	}
	calls := runner.Calls()
	if got := calls[len(calls)-1]; got != "brew doctor check_git_version check_xcode" {
		t.Fatalf("unexpected doctor call %q", got)
	}
}

func TestWaitForHostRetriesThenTimesOut(t *testing.T) {
	runner := testsupport.NewFakeRunner().
		On("ping -c1 -t1 vpn.example.com", testsupport.Response{ExitCode: 2})
	env := newEnv(t, runner)
	sleeps := 0
	env.Sleep = func(context.Context, time.Duration) error {
		sleeps++
		return nil
	}

	err := checks.WaitForHost(context.Background(), env, checks.Params{
		"host":     "vpn.example.com",
		"interval": "1s",
		"timeout":  "3s",
	})
	if !errors.Is(err, checks.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if len(runner.Calls()) != 4 || sleeps != 3 {
		t.Fatalf("expected 4 pings and 3 sleeps, got %d pings %d sleeps", len(runner.Calls()), sleeps)
	}
}

func TestWaitForHostSucceedsEventually(t *testing.T) {
	runner := testsupport.NewFakeRunner().
		On("ping*", testsupport.Response{ExitCode: 2}).
		On("ping*", testsupport.Response{})
	env := newEnv(t, runner)

	if err := checks.WaitForHost(context.Background(), env, checks.Params{"host": "nas"}); err != nil {
		t.Fatalf("WaitForHost: %v", err)
	}
	if len(runner.Calls()) != 2 {
		t.Fatalf("expected 2 pings, got %v", runner.Calls())
	}
}

func TestXcodePathSwitches(t *testing.T) {
	want := "/Applications/Xcode.app/Contents/Developer"
	runner := testsupport.NewFakeRunner().
		On("xcode-select --print-path", testsupport.Response{Stdout: "/Library/Developer/CommandLineTools\n"}).
		On("xcode-select --print-path", testsupport.Response{Stdout: want + "\n"})
	env := newEnv(t, runner)

	if err := checks.XcodePath(context.Background(), env, checks.Params{}); err != nil {
		t.Fatalf("XcodePath: %v", err)
	}
	calls := runner.Calls()
	if calls[1] != "sudo xcode-select -s "+want {
		t.Fatalf("expected plain sudo without a secret, got %v", calls)
	}
}

func TestKeychainSecret(t *testing.T) {
	runner := testsupport.NewFakeRunner().
		On("security find-generic-password -ga ldap_pass -w", testsupport.Response{Stdout: "s3cret\n"})
	env := newEnv(t, runner)

	if err := checks.KeychainSecret(context.Background(), env, checks.Params{}); err != nil {
		t.Fatalf("KeychainSecret: %v", err)
	}
	if v, _ := env.State.Var("LDAP_PASS"); v != "s3cret" {
		t.Fatalf("expected secret stored, got %q", v)
	}
	if got := env.State.Redact("password is s3cret"); got != "password is ****" {
		t.Fatalf("expected secret redacted, got %q", got)
	}

	// already set: keychain is not consulted again
	if err := checks.KeychainSecret(context.Background(), env, checks.Params{}); err != nil {
		t.Fatalf("KeychainSecret second call: %v", err)
	}
	if len(runner.Calls()) != 1 {
		t.Fatalf("expected a single keychain lookup, got %v", runner.Calls())
	}
}

func TestLineLimit(t *testing.T) {
	runner := testsupport.NewFakeRunner().On("devbox list", testsupport.Response{
		Stdout: "Name  Status\n------\nbox-1 running\nbox-2 running\n",
	})
	env := newEnv(t, runner)
	params := checks.Params{
		"command": "devbox",
		"args":    []any{"list"},
		"skip":    []any{"^Name", "------"},
		"hint":    "delete unused boxes",
	}

	err := checks.LineLimit(context.Background(), env, params)
	if err == nil {
		t.Fatal("expected line limit failure")
	}
	for _, want := range []string{"listed 2 entries", "box-1 running, box-2 running", "delete unused boxes"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in %v", want, err)
		}
	}

	params["max"] = int64(2)
	if err := checks.LineLimit(context.Background(), env, params); err != nil {
		t.Fatalf("expected pass with max 2, got %v", err)
	}
}

func TestOutputAndNoteQueueLines(t *testing.T) {
	runner := testsupport.NewFakeRunner().On("task-report", testsupport.Response{Stdout: "  a\n  b\n\n"})
	env := newEnv(t, runner)

	if err := checks.Output(context.Background(), env, checks.Params{"command": "task-report"}); err != nil {
		t.Fatalf("Output: %v", err)
	}
	if err := checks.Note(context.Background(), env, checks.Params{"lines": []any{"stretch"}}); err != nil {
		t.Fatalf("Note: %v", err)
	}
	want := []string{"  a", "  b", "", "stretch", ""}
	if diff := cmp.Diff(want, env.State.Output()); diff != "" {
		t.Fatalf("unexpected output (-want +got):\n%s", diff)
	}
}

func TestRegistryRunUnknown(t *testing.T) {
	env := newEnv(t, testsupport.NewFakeRunner())
	if err := checks.Builtin().Run(context.Background(), "nope", env, nil); err == nil {
		t.Fatal("expected unknown check error")
	}
	names := checks.Builtin().Names()
	if len(names) != 12 || names[0] != "brew-cleanup" {
		t.Fatalf("unexpected names %v", names)
	}
}

func TestParamsTypeErrors(t *testing.T) {
	params := checks.Params{"n": "x", "d": "soon", "f": 1.5}
	if _, err := params.Int("n", 0); err == nil {
		t.Fatal("expected int type error")
	}
	if _, err := params.Duration("d", 0); err == nil {
		t.Fatal("expected duration parse error")
	}
	if _, err := params.Int("f", 0); err == nil {
		t.Fatal("expected non-integer float error")
	}
}
