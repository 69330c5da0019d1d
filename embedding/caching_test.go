package embedding

import (
	"context"
	"testing"
)

type countingEmbedder struct {
	calls int
	vec   []float32
}

func (c *countingEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	c.calls++
	return c.vec, nil
}

func (c *countingEmbedder) Dimensions() int { return len(c.vec) }

func TestCachingEmbedderHitsCacheOnSecondCall(t *testing.T) {
	inner := &countingEmbedder{vec: []float32{1, 2, 3}}
	cached := NewCachingEmbedder(inner, NewMemoryCache())

	v1, err := cached.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	v2, err := cached.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}

	if inner.calls != 1 {
		t.Fatalf("inner embedder called %d times, want 1", inner.calls)
	}
	if len(v1) != len(v2) {
		t.Fatalf("mismatched vector lengths")
	}
}

func TestCachingEmbedderDistinctTextMisses(t *testing.T) {
	inner := &countingEmbedder{vec: []float32{1, 2, 3}}
	cached := NewCachingEmbedder(inner, NewMemoryCache())

	if _, err := cached.Embed(context.Background(), "hello"); err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if _, err := cached.Embed(context.Background(), "world"); err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if inner.calls != 2 {
		t.Fatalf("inner embedder called %d times, want 2", inner.calls)
	}
}

func TestVectorEncodeDecodeRoundTrip(t *testing.T) {
	vec := []float32{1.5, -2.25, 0, 3.75}
	decoded := decodeVector(encodeVector(vec))
	if len(decoded) != len(vec) {
		t.Fatalf("got %d elements, want %d", len(decoded), len(vec))
	}
	for i := range vec {
		if decoded[i] != vec[i] {
			t.Errorf("decoded[%d] = %v, want %v", i, decoded[i], vec[i])
		}
	}
}

func TestMemoryCacheMiss(t *testing.T) {
	c := NewMemoryCache()
	_, ok, err := c.Get(context.Background(), 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected a miss on an empty cache")
	}
}
