package browser

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// SortKey selects the listing order. Directories always come first.
type SortKey uint8

const (
	SortName SortKey = iota
	SortSize
	SortModified
)

func (k SortKey) String() string {
	switch k {
	case SortName:
		return "name"
	case SortSize:
		return "size"
	case SortModified:
		return "modified"
	default:
		return "unknown"
	}
}

// Next returns the following key, wrapping around.
func (k SortKey) Next() SortKey {
	return (k + 1) % 3
}

// ParseSortKey parses "name", "size" or "modified".
func ParseSortKey(s string) (SortKey, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "name":
		return SortName, nil
	case "size":
		return SortSize, nil
	case "modified", "mtime", "time":
		return SortModified, nil
	default:
		return SortName, fmt.Errorf("unknown sort key %q", s)
	}
}

// sortEntries orders entries in place. Reverse flips the key order but
// never moves files ahead of directories.
func sortEntries(entries []DirEntry, key SortKey, reverse bool) {
	slices.SortStableFunc(entries, func(a, b DirEntry) int {
		if ad, bd := a.IsDir(), b.IsDir(); ad != bd {
			if ad {
				return -1
			}
			return 1
		}
		var c int
		switch key {
		case SortSize:
			c = cmp.Compare(a.Size, b.Size)
		case SortModified:
			c = a.ModTime.Compare(b.ModTime)
		}
		if c == 0 {
			c = compareNames(a.Name, b.Name)
		}
		if reverse {
			c = -c
		}
		return c
	})
}

// compareNames orders case-insensitively, breaking ties on the exact name
// so the order is total.
func compareNames(a, b string) int {
	if c := strings.Compare(strings.ToLower(a), strings.ToLower(b)); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}
