package common

import (
	"bytes"
	"errors"
	"sync"
)

var ErrLineTooLong = errors.New("line too long")

func NewRingLineBuffer(maxLines, maxLineLength uint32) *RingLineBuffer {
	return &RingLineBuffer{
		pending:       make([]byte, 0, maxLineLength),
		maxLineLength: int(maxLineLength),
		lines:         make([][]byte, maxLines),
	}
}

// RingLineBuffer keeps the most recent lines written to it. Once full, every
// new line replaces the oldest one.
type RingLineBuffer struct {
	// TruncateTooLongLines splits lines exceeding the maximum length instead
	// of failing the write with ErrLineTooLong.
	TruncateTooLongLines bool

	pending       []byte
	maxLineLength int

	lines [][]byte
	next  int
	full  bool

	mutex sync.RWMutex
}

func (this *RingLineBuffer) Write(p []byte) (n int, err error) {
	this.mutex.Lock()
	defer this.mutex.Unlock()

	for len(p) > 0 {
		chunk, rest, hasNl := bytes.Cut(p, []byte{'\n'})

		if room := this.maxLineLength - len(this.pending); len(chunk) > room {
			if !this.TruncateTooLongLines {
				this.pending = this.pending[:0]
				return n, ErrLineTooLong
			}
			this.pending = append(this.pending, chunk[:room]...)
			this.push()
			n += room
			p = p[room:]
			continue
		}

		this.pending = append(this.pending, chunk...)
		n += len(chunk)
		if !hasNl {
			break
		}
		this.push()
		n++
		p = rest
	}

	return n, nil
}

func (this *RingLineBuffer) push() {
	this.lines[this.next] = bytes.Clone(this.pending)
	this.pending = this.pending[:0]
	if this.next = (this.next + 1) % len(this.lines); this.next == 0 {
		this.full = true
	}
}

// Tail returns copies of the last n complete lines, oldest first.
func (this *RingLineBuffer) Tail(n int) [][]byte {
	this.mutex.RLock()
	defer this.mutex.RUnlock()

	available := this.next
	if this.full {
		available = len(this.lines)
	}
	if n > available {
		n = available
	}
	if n <= 0 {
		return nil
	}

	result := make([][]byte, n)
	start := this.next - n + len(this.lines)
	for i := range result {
		result[i] = bytes.Clone(this.lines[(start+i)%len(this.lines)])
	}
	return result
}
