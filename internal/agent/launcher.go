package agent

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// DefaultAgentFlags are passed to every cursor-agent launch so resumed
// chats behave like ones started by hand.
var DefaultAgentFlags = []string{"--approve-mcps", "--browser", "--force"}

// ResumeInfo describes how to launch cursor-agent for a chat.
type ResumeInfo struct {
	Command string   // absolute path to the cursor-agent binary
	Args    []string // argv (including argv[0])
	Dir     string   // working directory to run in (empty = current)
}

// ExitOutcome classifies how a launched agent process ended.
type ExitOutcome struct {
	Success   bool
	ExitCode  int
	LaunchErr error // non-nil means the process never started
}

// ResolveAgentPath locates the cursor-agent binary: an explicit path wins,
// then $CURSOR_AGENT_PATH, then PATH, then the install default
// ~/.local/bin/cursor-agent.
func ResolveAgentPath(explicit string) (string, error) {
	if explicit != "" {
		return expandHome(explicit), nil
	}
	if p := os.Getenv(EnvAgentPath); p != "" {
		return expandHome(p), nil
	}
	if p, err := exec.LookPath("cursor-agent"); err == nil {
		return p, nil
	}
	if home, err := os.UserHomeDir(); err == nil {
		fallback := filepath.Join(home, ".local", "bin", "cursor-agent")
		if _, err := os.Stat(fallback); err == nil {
			return fallback, nil
		}
	}
	return "", fmt.Errorf("cursor-agent not found: set $%s or install it on PATH", EnvAgentPath)
}

// BuildResumeCommand builds the launch for resuming an existing chat.
// cursor-agent buckets chats by cwd, so Dir must be the workspace path for
// the resumed chat to land in the right bucket.
func BuildResumeCommand(agentPath, workspacePath, chatID string, extraFlags []string) *ResumeInfo {
	args := []string{filepath.Base(agentPath)}
	args = append(args, agentFlags(extraFlags)...)
	if workspacePath != "" {
		args = append(args, "--workspace", workspacePath)
	}
	args = append(args, "--resume", chatID)
	return &ResumeInfo{Command: agentPath, Args: args, Dir: workspacePath}
}

// BuildNewCommand builds the launch for starting a fresh chat.
func BuildNewCommand(agentPath, workspacePath string, extraFlags []string) *ResumeInfo {
	args := []string{filepath.Base(agentPath)}
	args = append(args, agentFlags(extraFlags)...)
	if workspacePath != "" {
		args = append(args, "--workspace", workspacePath)
	}
	return &ResumeInfo{Command: agentPath, Args: args, Dir: workspacePath}
}

func agentFlags(extra []string) []string {
	if extra != nil {
		return extra
	}
	return DefaultAgentFlags
}

// Cmd converts info into an exec.Cmd wired to the current terminal.
func (info *ResumeInfo) Cmd() *exec.Cmd {
	cmd := exec.Command(info.Command, info.Args[1:]...)
	cmd.Dir = info.Dir
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd
}

// Run launches the agent and waits for it, classifying the result. The
// caller must have released the terminal first.
func Run(info *ResumeInfo) ExitOutcome {
	cmd := info.Cmd()
	err := cmd.Run()
	if err == nil {
		return ExitOutcome{Success: true}
	}
	if ee, ok := err.(*exec.ExitError); ok {
		return ExitOutcome{ExitCode: ee.ExitCode()}
	}
	return ExitOutcome{LaunchErr: err}
}
