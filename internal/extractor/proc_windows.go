//go:build windows

package extractor

import "os/exec"

// killProcessGroup keeps the default Kill on Windows. WaitDelay still
// releases the pipes held by grandchildren.
func killProcessGroup(cmd *exec.Cmd) {}
