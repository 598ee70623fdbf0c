//go:build windows

package agent

import "os"

// Exec starts the agent launch and exits the current process.
// Windows has no execve, so os/exec stands in.
func Exec(info *ResumeInfo) error {
	cmd := info.Cmd()
	if err := cmd.Start(); err != nil {
		return err
	}
	state, err := cmd.Process.Wait()
	if err != nil {
		return err
	}
	os.Exit(state.ExitCode())
	return nil // unreachable
}
