//go:build integration

package integration

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"
)

// TestConfig holds configuration for integration tests
type TestConfig struct {
	APIHost    string
	APIKey     string
	OrgHandle  string
	DeviceType string
	AppName    string
	DeviceUUID string
	FleetPath  string
	Verbose    bool
}

// LoadTestConfig loads configuration from environment variables
func LoadTestConfig() *TestConfig {
	config := &TestConfig{
		APIHost:    os.Getenv("FLEET_TEST_API_HOST"),
		APIKey:     os.Getenv("FLEET_TEST_API_KEY"),
		OrgHandle:  os.Getenv("FLEET_TEST_ORG"),
		DeviceType: os.Getenv("FLEET_TEST_DEVICE_TYPE"),
		AppName:    os.Getenv("FLEET_TEST_APP"),
		DeviceUUID: os.Getenv("FLEET_TEST_DEVICE_UUID"),
		FleetPath:  getFleetPath(),
		Verbose:    os.Getenv("FLEET_TEST_VERBOSE") == "true",
	}

	if config.DeviceType == "" {
		config.DeviceType = "raspberrypi4-64"
	}

	return config
}

// getFleetPath determines the path to the fleet binary
func getFleetPath() string {
	if path := os.Getenv("FLEET_BINARY_PATH"); path != "" {
		return path
	}

	// Try common locations
	candidates := []string{
		"../../fleet",
		"./fleet",
		"../fleet",
	}

	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return "fleet" // Fallback to PATH
}

// SkipIfMissingConfig skips test if required config is missing
func (config *TestConfig) SkipIfMissingConfig(t *testing.T) {
	if config.APIHost == "" {
		t.Skip("FLEET_TEST_API_HOST not set, skipping integration test")
	}

	if config.APIKey == "" {
		t.Skip("FLEET_TEST_API_KEY not set, skipping integration test")
	}

	if _, err := os.Stat(config.FleetPath); os.IsNotExist(err) {
		t.Skipf("fleet binary not found at %s, skipping integration test", config.FleetPath)
	}
}

// CommandRunner provides utilities for running fleet commands
type CommandRunner struct {
	config *TestConfig
	t      *testing.T
}

// NewCommandRunner creates a new command runner
func NewCommandRunner(config *TestConfig, t *testing.T) *CommandRunner {
	return &CommandRunner{
		config: config,
		t:      t,
	}
}

// environ builds the child environment with the test credentials injected.
// exec keeps the last duplicate, so these win over anything inherited.
func (runner *CommandRunner) environ() []string {
	return append(os.Environ(),
		"FLEET_HOST="+runner.config.APIHost,
		"FLEET_TOKEN="+runner.config.APIKey,
	)
}

// Run executes a fleet command and returns output
func (runner *CommandRunner) Run(args ...string) (stdout, stderr string, err error) {
	cmd := exec.Command(runner.config.FleetPath, args...)
	cmd.Env = runner.environ()
	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	if runner.config.Verbose {
		runner.t.Logf("Running: %s %s", runner.config.FleetPath, strings.Join(args, " "))
	}

	err = cmd.Run()
	stdout = stdoutBuf.String()
	stderr = stderrBuf.String()

	if runner.config.Verbose && err != nil {
		runner.t.Logf("Command failed: %v\nStdout: %s\nStderr: %s", err, stdout, stderr)
	}

	return stdout, stderr, err
}

// RunWithInput executes a fleet command with stdin input
func (runner *CommandRunner) RunWithInput(input string, args ...string) (stdout, stderr string, err error) {
	cmd := exec.Command(runner.config.FleetPath, args...)
	cmd.Env = runner.environ()
	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf
	cmd.Stdin = strings.NewReader(input)

	if runner.config.Verbose {
		runner.t.Logf("Running with input: %s %s", runner.config.FleetPath, strings.Join(args, " "))
	}

	err = cmd.Run()
	stdout = stdoutBuf.String()
	stderr = stderrBuf.String()

	if runner.config.Verbose && err != nil {
		runner.t.Logf("Command failed: %v\nStdout: %s\nStderr: %s", err, stdout, stderr)
	}

	return stdout, stderr, err
}

// RunUnauthenticated executes a fleet command with the credential cleared.
// The explicit empty --token flag beats any stored session or environment.
func (runner *CommandRunner) RunUnauthenticated(args ...string) (stdout, stderr string, err error) {
	cmd := exec.Command(runner.config.FleetPath, append([]string{"--token", ""}, args...)...)
	cmd.Env = append(os.Environ(), "FLEET_HOST="+runner.config.APIHost)
	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	if runner.config.Verbose {
		runner.t.Logf("Running unauthenticated: %s %s", runner.config.FleetPath, strings.Join(args, " "))
	}

	err = cmd.Run()
	stdout = stdoutBuf.String()
	stderr = stderrBuf.String()

	return stdout, stderr, err
}

// GenerateTestName creates a unique test resource name
func GenerateTestName(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().Unix())
}

// CleanupResource attempts to delete a test resource
func (runner *CommandRunner) CleanupResource(resourceType, name string) {
	var args []string
	switch resourceType {
	case "app":
		args = []string{"apps", "rm", name, "--force"}
	case "device":
		args = []string{"devices", "rm", name, "--force"}
	case "org":
		args = []string{"orgs", "rm", name, "--force"}
	default:
		runner.t.Logf("Unknown resource type for cleanup: %s", resourceType)
		return
	}

	stdout, stderr, err := runner.Run(args...)
	if err != nil && runner.config.Verbose {
		runner.t.Logf("Cleanup warning for %s %s: %s\nStderr: %s", resourceType, name, stdout, stderr)
	}
}

// WaitForCondition waits for a condition to be met with timeout
func WaitForCondition(t *testing.T, condition func() bool, timeout time.Duration, message string) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	timeoutChan := time.After(timeout)

	for {
		select {
		case <-ticker.C:
			if condition() {
				return
			}
		case <-timeoutChan:
			t.Fatalf("Timeout waiting for condition: %s", message)
		}
	}
}

// AssertJSONOutput verifies command output is valid JSON
func AssertJSONOutput(t *testing.T, output string) {
	// Basic JSON validation
	output = strings.TrimSpace(output)
	if !strings.HasPrefix(output, "{") && !strings.HasPrefix(output, "[") {
		t.Errorf("Output does not appear to be JSON: %s", output)
	}
}

// AssertYAMLOutput verifies command output is valid YAML
func AssertYAMLOutput(t *testing.T, output string) {
	// Basic YAML validation
	output = strings.TrimSpace(output)
	if strings.Contains(output, "---") || strings.Contains(output, ":") {
		return // Looks like YAML
	}
	t.Errorf("Output does not appear to be YAML: %s", output)
}
