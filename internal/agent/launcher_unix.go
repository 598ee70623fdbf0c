//go:build !windows

package agent

import "syscall"

// Exec replaces the current process with the agent launch.
// On success, this function does not return.
func Exec(info *ResumeInfo) error {
	if info.Dir != "" {
		if err := syscall.Chdir(info.Dir); err != nil {
			return err
		}
	}
	return syscall.Exec(info.Command, info.Args, syscall.Environ())
}
