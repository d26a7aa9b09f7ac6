package id

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	gen := NewGenerator()

	assert.NotEqual(t, gen.Generate(), gen.Generate())
	assert.Len(t, gen.GenerateString(), 26)
}

func TestGenerateWithPrefix(t *testing.T) {
	gen := NewGenerator()

	for _, prefix := range []string{RequestPrefix, TracePrefix, SpanPrefix} {
		id := gen.GenerateWithPrefix(prefix)

		head, raw, ok := strings.Cut(id, "_")
		require.True(t, ok, id)
		assert.Equal(t, prefix, head)
		assert.Len(t, raw, 26)
		assert.True(t, IsValid(raw))
		assert.True(t, IsValid(id))
	}
}

func TestTypedIDs(t *testing.T) {
	assert.True(t, strings.HasPrefix(NewRequestID().String(), "req_"))
	assert.True(t, strings.HasPrefix(NewTraceID().String(), "trace_"))
	assert.True(t, strings.HasPrefix(NewSpanID().String(), "span_"))
}

func TestIsValidRejectsGarbage(t *testing.T) {
	for _, id := range []string{"", "invalid", "1234567890", "req_", "zzzzzzzzzzzzzzzzzzzzzzzzzzz"} {
		assert.False(t, IsValid(id), id)
	}
}

func TestParseRoundTrip(t *testing.T) {
	original := NewGenerator().Generate()

	parsed, err := Parse(original.String())
	require.NoError(t, err)
	assert.Equal(t, original, parsed)

	parsed, err = Parse("req_" + original.String())
	require.NoError(t, err)
	assert.Equal(t, original, parsed)
}

func TestTimestamp(t *testing.T) {
	before := time.Now().UnixMilli()
	id := NewRequestID()
	after := time.Now().UnixMilli()

	ts, err := Timestamp(id.String())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, ts.UnixMilli(), before)
	assert.LessOrEqual(t, ts.UnixMilli(), after)

	_, err = Timestamp("nope")
	assert.Error(t, err)
}

func TestConcurrentGenerationIsUnique(t *testing.T) {
	gen := NewGenerator()

	const goroutines = 50
	const perGoroutine = 100

	var wg sync.WaitGroup
	ids := make(chan string, goroutines*perGoroutine)
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perGoroutine {
				ids <- gen.GenerateString()
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]struct{})
	for id := range ids {
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}
	}
	assert.Len(t, seen, goroutines*perGoroutine)
}

func TestIDsSortByCreation(t *testing.T) {
	gen := NewGenerator()

	prev := gen.GenerateString()
	for range 20 {
		next := gen.GenerateString()
		assert.Greater(t, next, prev)
		prev = next
	}
}

func TestDefaultIsSingleton(t *testing.T) {
	assert.Same(t, Default(), Default())
}

func BenchmarkGenerateWithPrefix(b *testing.B) {
	gen := NewGenerator()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = gen.GenerateWithPrefix(RequestPrefix)
	}
}
