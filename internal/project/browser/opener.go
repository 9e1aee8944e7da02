package browser

import (
	"fmt"
	"os/exec"
	"runtime"
)

// Opener hands a non-directory entry to another program.
type Opener interface {
	Open(path string) error
}

// SystemOpener opens files with the desktop's default application.
type SystemOpener struct{}

// Open starts the platform opener and does not wait for it.
func (SystemOpener) Open(path string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", path)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", "", path)
	default:
		cmd = exec.Command("xdg-open", path)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}
