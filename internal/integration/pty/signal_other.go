//go:build !unix

package pty

import (
	"os"

	"github.com/creack/pty"
)

func pollable(master *os.File) (*os.File, error) { return master, nil }

func setsize(master *os.File, rows, cols int) error {
	return pty.Setsize(master, &pty.Winsize{Rows: uint16(rows), Cols: uint16(cols)})
}

func hangup(int) error { return nil }

func exitStatus(state *os.ProcessState) int { return state.ExitCode() }
