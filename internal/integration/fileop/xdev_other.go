//go:build !unix

package fileop

import (
	"errors"
	"os"
)

func isCrossDevice(err error) bool {
	var le *os.LinkError
	return errors.As(err, &le)
}
