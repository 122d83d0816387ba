package browser

import (
	"os"
	"os/exec"
	"runtime"
	"strconv"
)

// killProcessTree kills the browser and its helper processes. proc.Kill only
// reaches the parent; renderer and GPU children would otherwise survive.
func killProcessTree(proc *os.Process) {
	if proc == nil {
		return
	}
	if runtime.GOOS == "windows" {
		_ = exec.Command("taskkill", "/F", "/T", "/PID", strconv.Itoa(proc.Pid)).Run() //nolint:gosec // pid comes from our own child
		return
	}
	// chromedp starts Chrome in its own process group, so the negative pid
	// addresses the whole tree.
	if err := exec.Command("kill", "-9", "--", "-"+strconv.Itoa(proc.Pid)).Run(); err != nil { //nolint:gosec // pid comes from our own child
		_ = proc.Kill()
	}
}
