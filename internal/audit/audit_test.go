package audit

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventAppendsTimestampedLines(t *testing.T) {
	trail, err := Open(filepath.Join(t.TempDir(), "logs.txt"))
	require.NoError(t, err)

	trail.Event("[DEPOSIT] DEPOSIT OF 100.00 INTO ACCOUNT => abc")
	trail.Event("[BALANCE] SHOW BALANCE OF ACCOUNT => abc")

	lines, err := trail.Read()
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "[DEPOSIT]")
	assert.Contains(t, lines[1], "[BALANCE]")
	assert.Regexp(t, `^\[\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\]\t`, lines[0])
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs.txt")

	trail, err := Open(path)
	require.NoError(t, err)
	trail.Event("first")

	trail2, err := Open(path)
	require.NoError(t, err)
	lines, err := trail2.Read()
	require.NoError(t, err)
	assert.Len(t, lines, 1, "re-opening must not truncate the trail")
}

func TestConcurrentEventsAllLand(t *testing.T) {
	trail, err := Open(filepath.Join(t.TempDir(), "logs.txt"))
	require.NoError(t, err)

	const n = 32
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			trail.Event("event")
		}()
	}
	wg.Wait()

	lines, err := trail.Read()
	require.NoError(t, err)
	assert.Len(t, lines, n)
}
