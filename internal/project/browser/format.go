package browser

import (
	"time"

	"github.com/dustin/go-humanize"
)

// TimeLayout is the layout of the modified column.
const TimeLayout = "2006-01-02 15:04"

// FormatSize renders a human readable size, or "--" for directories.
func FormatSize(e DirEntry) string {
	if e.IsDir() {
		return "--"
	}
	if e.Size < 0 {
		return "--"
	}
	return humanize.IBytes(uint64(e.Size))
}

// FormatModTime renders t in local time, or "--" when unknown.
func FormatModTime(t time.Time) string {
	if t.IsZero() {
		return "--"
	}
	return t.Local().Format(TimeLayout)
}
