package sandbox

import (
	"bytes"
	"strings"
)

// TruncationMarker is appended to captured output cut at the policy cap.
const TruncationMarker = "\n... [output truncated]"

// boundedBuffer keeps at most limit bytes and drops the rest, so a
// runaway snippet cannot grow host memory through its output streams.
type boundedBuffer struct {
	buf       bytes.Buffer
	limit     int
	truncated bool
}

func newBoundedBuffer(limit int) *boundedBuffer {
	return &boundedBuffer{limit: limit}
}

func (b *boundedBuffer) Write(p []byte) (int, error) {
	if b.limit <= 0 {
		return b.buf.Write(p)
	}
	room := b.limit - b.buf.Len()
	if room <= 0 {
		b.truncated = true
		return len(p), nil
	}
	if len(p) > room {
		b.truncated = true
		_, _ = b.buf.Write(p[:room])
		return len(p), nil
	}
	return b.buf.Write(p)
}

func (b *boundedBuffer) String() string {
	if !b.truncated {
		return b.buf.String()
	}
	return strings.ToValidUTF8(b.buf.String(), "") + TruncationMarker
}
