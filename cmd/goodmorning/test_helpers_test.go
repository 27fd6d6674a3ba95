package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"goodmorning/internal/testsupport"
)

const testHost = "test-host"

type cliTestEnv struct {
	base       string
	configPath string
	stateDir   string
	syncDir    string
	tasksDir   string
	runner     *testsupport.FakeRunner
}

type envOptions struct {
	baseURL string
}

func setupCLITestEnv(t *testing.T, opts ...func(*envOptions)) *cliTestEnv {
	t.Helper()

	o := envOptions{baseURL: "https://moments.example.com"}
	for _, opt := range opts {
		opt(&o)
	}

	base := t.TempDir()
	home := filepath.Join(base, "home")
	if err := os.MkdirAll(home, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", home)
	t.Setenv("GOODMORNING_HOSTNAME", testHost)
	t.Setenv("GOODMORNING_SYNC_DIR", "")
	t.Setenv("NTFY_TOPIC", "")

	env := &cliTestEnv{
		base:       base,
		configPath: filepath.Join(base, "config.toml"),
		stateDir:   filepath.Join(base, "state"),
		syncDir:    filepath.Join(base, "sync"),
		tasksDir:   filepath.Join(base, "tasks"),
		runner:     testsupport.NewFakeRunner(),
	}
	for _, dir := range []string{env.syncDir, env.tasksDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}

	content := fmt.Sprintf(`
[paths]
state_dir = %q
log_dir = %q
sync_dir = %q

[logging]
level = "error"

[machines]
homeLaptop = "^test-host$"
workLaptop = "^work-"

[environment.GREETING]
homeLaptop = "hello"
default = "hi"

[tasks]
dir = %q
default_profile = "morning"
secret_var = "SUDO_PASSWORD"

[moment_garden]
base_url = %q
request_interval_seconds = 0
download_interval_seconds = 0

[dates]
file = "dates.toml"

[priorities]
file = "priorities.toml"
`, env.stateDir, filepath.Join(base, "logs"), env.syncDir, env.tasksDir, o.baseURL)
	testsupport.WriteContent(t, env.configPath, []byte(content))
	return env
}

func withBaseURL(url string) func(*envOptions) {
	return func(o *envOptions) { o.baseURL = url }
}

func (e *cliTestEnv) writeProfile(t *testing.T, name, content string) {
	t.Helper()
	testsupport.WriteContent(t, filepath.Join(e.tasksDir, name+".toml"), []byte(content))
}

func (e *cliTestEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := buildRootCommand(e.runner)
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(append([]string{"--config", e.configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
