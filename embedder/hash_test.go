package embedder

import (
	"context"
	"math"
	"testing"
)

func TestHashEmbedder_Deterministic(t *testing.T) {
	e := NewHashEmbedder(64)
	ctx := context.Background()

	v1, err := e.Embed(ctx, "func main() {}")
	if err != nil {
		t.Fatalf("embed failed: %v", err)
	}
	v2, err := e.Embed(ctx, "func main() {}")
	if err != nil {
		t.Fatalf("embed failed: %v", err)
	}

	if len(v1) != 64 {
		t.Fatalf("expected 64 dimensions, got %d", len(v1))
	}
	for i := range v1 {
		if v1[i] != v2[i] {
			t.Fatalf("same text produced different vectors at index %d", i)
		}
	}
}

func TestHashEmbedder_DifferentTexts(t *testing.T) {
	e := NewHashEmbedder(64)
	ctx := context.Background()

	v1, _ := e.Embed(ctx, "alpha")
	v2, _ := e.Embed(ctx, "beta")

	same := true
	for i := range v1 {
		if v1[i] != v2[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different texts produced identical vectors")
	}
}

func TestHashEmbedder_Normalized(t *testing.T) {
	e := NewHashEmbedder(128)
	v, err := e.Embed(context.Background(), "some symbol text")
	if err != nil {
		t.Fatalf("embed failed: %v", err)
	}

	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if math.Abs(math.Sqrt(norm)-1.0) > 0.001 {
		t.Errorf("expected unit-length vector, got norm %f", math.Sqrt(norm))
	}
}

func TestHashEmbedder_Batch(t *testing.T) {
	e := NewHashEmbedder(32)
	ctx := context.Background()

	texts := []string{"one", "two", "three"}
	batch, err := e.EmbedBatch(ctx, texts)
	if err != nil {
		t.Fatalf("batch embed failed: %v", err)
	}
	if len(batch) != len(texts) {
		t.Fatalf("expected %d vectors, got %d", len(texts), len(batch))
	}

	single, _ := e.Embed(ctx, "two")
	for i := range single {
		if batch[1][i] != single[i] {
			t.Fatal("batch vector differs from single embed for same text")
		}
	}
}

func TestHashEmbedder_DefaultDimensions(t *testing.T) {
	e := NewHashEmbedder(0)
	if e.Dimensions() != defaultHashDimensions {
		t.Errorf("expected default dimensions %d, got %d", defaultHashDimensions, e.Dimensions())
	}
}
