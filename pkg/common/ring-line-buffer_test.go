package common

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingLineBuffer_Write(t *testing.T) {
	instance := NewRingLineBuffer(5, 15)
	write := func(v ...string) {
		t.Helper()
		toWrite := b(v...)
		n, err := instance.Write(toWrite)
		require.NoError(t, err)
		require.Equal(t, len(toWrite), n)
	}

	write("abc")
	write("def")
	assert.Nil(t, instance.Tail(5))

	write("foo\n")
	assert.Equal(t, [][]byte{b("abcdeffoo")}, instance.Tail(5))

	write("bar\nxyz")
	assert.Equal(t, [][]byte{b("abcdeffoo"), b("bar")}, instance.Tail(5))

	write("\n\n")
	assert.Equal(t, [][]byte{b("abcdeffoo"), b("bar"), b("xyz"), b("")}, instance.Tail(5))
}

func TestRingLineBuffer_Write_tooLong(t *testing.T) {
	instance := NewRingLineBuffer(5, 10)

	_, err := instance.Write(b("0123456789abc\n"))
	require.ErrorIs(t, err, ErrLineTooLong)
	assert.Nil(t, instance.Tail(5))

	instance.TruncateTooLongLines = true
	n, err := instance.Write(b("0123456789abc\nshort\n"))
	require.NoError(t, err)
	assert.Equal(t, 20, n)
	assert.Equal(t, [][]byte{b("0123456789"), b("abc"), b("short")}, instance.Tail(5))
}

func TestRingLineBuffer_Tail(t *testing.T) {
	instance := NewRingLineBuffer(3, 15)
	assert.Nil(t, instance.Tail(2))

	for _, v := range []string{"a", "b", "c", "d", "e"} {
		_, err := instance.Write(b(v, "\n"))
		require.NoError(t, err)
	}

	assert.Equal(t, [][]byte{b("d"), b("e")}, instance.Tail(2))
	assert.Equal(t, [][]byte{b("c"), b("d"), b("e")}, instance.Tail(10))
	assert.Nil(t, instance.Tail(0))

	tail := instance.Tail(1)
	tail[0][0] = 'x'
	assert.Equal(t, [][]byte{b("e")}, instance.Tail(1))
}

func TestRingLineBuffer_concurrentWriters(t *testing.T) {
	instance := NewRingLineBuffer(100, 64)

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				_, _ = fmt.Fprintf(instance, "writer %d line %d\n", w, i)
			}
		}(w)
	}
	wg.Wait()

	lines := instance.Tail(1000)
	assert.Len(t, lines, 100)
	for _, line := range lines {
		assert.True(t, strings.HasPrefix(string(line), "writer "), string(line))
	}
}

func b(v ...string) []byte {
	return []byte(strings.Join(v, ""))
}
