//go:build unix

package pty

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"syscall"

	"golang.org/x/sys/unix"
)

// pollable swaps the PTY master for a non-blocking duplicate managed by the
// runtime poller, so reads honor deadlines and Close interrupts a blocked
// Read. The original descriptor is closed.
func pollable(master *os.File) (*os.File, error) {
	raw, err := master.SyscallConn()
	if err != nil {
		return nil, err
	}
	fd := -1
	var dupErr error
	if err := raw.Control(func(orig uintptr) {
		fd, dupErr = unix.FcntlInt(orig, unix.F_DUPFD_CLOEXEC, 0)
	}); err != nil {
		return nil, err
	}
	if dupErr != nil {
		return nil, fmt.Errorf("dup pty master: %w", dupErr)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("pty master non-blocking: %w", err)
	}
	f := os.NewFile(uintptr(fd), master.Name())
	_ = master.Close()
	return f, nil
}

// setsize applies a window size without calling Fd, which would put the
// master back into blocking mode.
func setsize(master *os.File, rows, cols int) error {
	raw, err := master.SyscallConn()
	if err != nil {
		return err
	}
	var ioErr error
	if err := raw.Control(func(fd uintptr) {
		ioErr = unix.IoctlSetWinsize(int(fd), unix.TIOCSWINSZ, &unix.Winsize{
			Row: uint16(rows),
			Col: uint16(cols),
		})
	}); err != nil {
		return err
	}
	return ioErr
}

// hangup sends SIGHUP to every process group in the session led by pid, the
// way a terminal does when it goes away. Jobs started under job control
// live in their own groups, so the shell's group alone is not enough.
func hangup(pid int) error {
	var errs []error
	for _, pgid := range sessionGroups(pid) {
		if err := unix.Kill(-pgid, unix.SIGHUP); err != nil && !errors.Is(err, unix.ESRCH) {
			errs = append(errs, fmt.Errorf("hangup group %d: %w", pgid, err))
		}
	}
	return errors.Join(errs...)
}

// sessionGroups lists the process groups whose members belong to session
// sid. The group led by sid comes first. Without /proc only that group is
// known.
func sessionGroups(sid int) []int {
	groups := []int{sid}
	entries, err := os.ReadDir("/proc")
	if err != nil {
		return groups
	}
	seen := map[int]bool{sid: true}
	for _, e := range entries {
		pid, err := strconv.Atoi(e.Name())
		if err != nil {
			continue
		}
		if s, err := unix.Getsid(pid); err != nil || s != sid {
			continue
		}
		pgid, err := unix.Getpgid(pid)
		if err != nil || seen[pgid] {
			continue
		}
		seen[pgid] = true
		groups = append(groups, pgid)
	}
	return groups
}

// exitStatus maps a finished process to a shell-style exit code: the exit
// status, or 128+signal when it was killed.
func exitStatus(state *os.ProcessState) int {
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	return state.ExitCode()
}
