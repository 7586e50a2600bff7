package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

func writeTestConfig(t *testing.T, base string, approvalRequired bool) string {
	t.Helper()

	configPath := filepath.Join(base, "config.toml")
	content := fmt.Sprintf(`[paths]
data_dir = %q
log_dir = %q

[approval]
change_role_approval_required = %t
default_timeout_days = 7

[daemon]
sweep_interval = 60

[logging]
format = "console"
level = "info"
`, filepath.Join(base, "data"), filepath.Join(base, "logs"), approvalRequired)

	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return configPath
}

func runCLI(t *testing.T, configPath string, args ...string) string {
	t.Helper()

	out := runCLIExpectingError(t, configPath, nil, args...)
	return out
}

func runCLIExpectingError(t *testing.T, configPath string, wantErr *error, args ...string) string {
	t.Helper()

	cmd := newRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(append([]string{"--config", configPath}, args...))

	err := cmd.Execute()
	if wantErr == nil {
		if err != nil {
			t.Fatalf("command %v failed: %v\noutput: %s", args, err, buf.String())
		}
	} else {
		*wantErr = err
	}
	return buf.String()
}

var parenthesized = regexp.MustCompile(`\(([0-9a-f-]{36})\)`)

func extractID(t *testing.T, output string) string {
	t.Helper()

	match := parenthesized.FindStringSubmatch(output)
	if match == nil {
		t.Fatalf("no id found in output: %s", output)
	}
	return match[1]
}

var requestNumber = regexp.MustCompile(`request (\d+)`)

func extractRequestID(t *testing.T, output string) string {
	t.Helper()

	match := requestNumber.FindStringSubmatch(output)
	if match == nil {
		t.Fatalf("no request id found in output: %s", output)
	}
	return match[1]
}

func TestPromotionFlowThroughCLI(t *testing.T) {
	base := t.TempDir()
	configPath := writeTestConfig(t, base, true)

	leaderOut := runCLI(t, configPath, "profile", "add", "Ruth", "Mensah")
	leaderID := extractID(t, leaderOut)
	memberOut := runCLI(t, configPath, "profile", "add", "Ada", "Okafor")
	memberID := extractID(t, memberOut)

	originOut := runCLI(t, configPath, "group", "add", "Origin", leaderID)
	originID := extractID(t, originOut)
	branchOut := runCLI(t, configPath, "group", "add", "Branch", leaderID, "--parent", originID)
	branchID := extractID(t, branchOut)

	runCLI(t, configPath, "group", "join", memberID, branchID)

	promoteOut := runCLI(t, configPath, "approvals", "promote", memberID, "--as", memberID)
	if !strings.Contains(promoteOut, "Approval request") {
		t.Fatalf("expected a pending request, got: %s", promoteOut)
	}
	requestID := extractRequestID(t, promoteOut)

	pendingOut := runCLI(t, configPath, "approvals", "pending", branchID)
	if !strings.Contains(pendingOut, "promote_to_leader") {
		t.Fatalf("expected pending promotion, got: %s", pendingOut)
	}

	// A non-leader cannot approve.
	var approveErr error
	runCLIExpectingError(t, configPath, &approveErr, "approvals", "approve", requestID, "--as", memberID)
	if approveErr == nil {
		t.Fatal("expected approval by non-leader to fail")
	}

	runCLI(t, configPath, "approvals", "approve", requestID, "--as", leaderID)

	showOut := runCLI(t, configPath, "profile", "show", memberID)
	if !strings.Contains(showOut, "leader") {
		t.Fatalf("expected promoted role, got: %s", showOut)
	}
}

func TestPromotionBypassesApprovalWhenFlagOff(t *testing.T) {
	base := t.TempDir()
	configPath := writeTestConfig(t, base, false)

	leaderOut := runCLI(t, configPath, "profile", "add", "Ruth", "Mensah")
	leaderID := extractID(t, leaderOut)
	memberOut := runCLI(t, configPath, "profile", "add", "Ada", "Okafor")
	memberID := extractID(t, memberOut)

	groupOut := runCLI(t, configPath, "group", "add", "Branch", leaderID)
	groupID := extractID(t, groupOut)
	runCLI(t, configPath, "group", "join", memberID, groupID)

	promoteOut := runCLI(t, configPath, "approvals", "promote", memberID, "--as", memberID)
	if !strings.Contains(promoteOut, "promoted to leader") {
		t.Fatalf("expected immediate promotion, got: %s", promoteOut)
	}
}

func TestDiscipleLifecycleThroughCLI(t *testing.T) {
	base := t.TempDir()
	configPath := writeTestConfig(t, base, true)

	disciplerOut := runCLI(t, configPath, "profile", "add", "Ruth", "Mensah")
	disciplerID := extractID(t, disciplerOut)
	discipleOut := runCLI(t, configPath, "profile", "add", "Ada", "Okafor")
	discipleID := extractID(t, discipleOut)

	addOut := runCLI(t, configPath, "disciple", "add", discipleID, disciplerID)
	if !strings.Contains(addOut, "Group member") {
		t.Fatalf("expected group_member placement, got: %s", addOut)
	}
	match := regexp.MustCompile(`record (\d+)`).FindStringSubmatch(addOut)
	if match == nil {
		t.Fatalf("no record id in output: %s", addOut)
	}
	recordID := match[1]

	runCLI(t, configPath, "disciple", "move", recordID, "first_12", "--as", disciplerID)

	listOut := runCLI(t, configPath, "disciple", "list", disciplerID)
	if !strings.Contains(listOut, "First 12") {
		t.Fatalf("expected head at First 12, got: %s", listOut)
	}

	historyOut := runCLI(t, configPath, "disciple", "history", discipleID, disciplerID)
	if !strings.Contains(historyOut, "Group member") || !strings.Contains(historyOut, "First 12") {
		t.Fatalf("expected both stages in history, got: %s", historyOut)
	}

	// A second placement of the same disciple conflicts.
	var conflictErr error
	runCLIExpectingError(t, configPath, &conflictErr, "disciple", "add", discipleID, disciplerID)
	if conflictErr == nil {
		t.Fatal("expected duplicate placement to fail")
	}
}

func TestConfigPathCommand(t *testing.T) {
	out := runCLI(t, "", "config", "path")
	if strings.TrimSpace(out) == "" {
		t.Fatal("expected config path output")
	}
}
