package vfs

import (
	"bytes"
	"io"
)

// SniffLen is how much of a file IsBinary looks at.
const SniffLen = 8192

var bomUTF8 = []byte{0xEF, 0xBB, 0xBF}

// IsBinary reports whether content looks like binary data: a NUL byte in
// the first SniffLen bytes.
func IsBinary(content []byte) bool {
	if len(content) > SniffLen {
		content = content[:SniffLen]
	}
	return bytes.IndexByte(content, 0) >= 0
}

// StripBOM removes a leading UTF-8 byte order mark.
func StripBOM(content []byte) []byte {
	return bytes.TrimPrefix(content, bomUTF8)
}

// ReadFile reads up to limit bytes from path on fsys. A limit <= 0 means
// no limit.
func ReadFile(fsys FS, path string, limit int64) ([]byte, error) {
	r, err := fsys.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	if limit > 0 {
		return io.ReadAll(io.LimitReader(r, limit))
	}
	return io.ReadAll(r)
}
