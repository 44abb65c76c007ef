package embedder

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math"
)

const defaultHashDimensions = 768

// HashEmbedder produces deterministic vectors derived from the text
// alone. It needs no model or network and is meant for tests and
// offline smoke runs; identical texts always map to identical vectors.
type HashEmbedder struct {
	dimensions int
}

func NewHashEmbedder(dimensions int) *HashEmbedder {
	if dimensions <= 0 {
		dimensions = defaultHashDimensions
	}
	return &HashEmbedder{dimensions: dimensions}
}

func (e *HashEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vec := make([]float32, e.dimensions)
	seed := sha256.Sum256([]byte(text))

	// Stretch the digest with counter-mode rehashing, then normalize.
	var norm float64
	buf := make([]byte, len(seed)+4)
	copy(buf, seed[:])
	for i := 0; i < e.dimensions; i += 8 {
		binary.BigEndian.PutUint32(buf[len(seed):], uint32(i))
		block := sha256.Sum256(buf)
		for j := 0; j < 8 && i+j < e.dimensions; j++ {
			bits := binary.BigEndian.Uint32(block[j*4 : j*4+4])
			v := float32(bits)/float32(math.MaxUint32)*2 - 1
			vec[i+j] = v
			norm += float64(v) * float64(v)
		}
	}

	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
	}
	return vec, nil
}

func (e *HashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		embeddings[i] = vec
	}
	return embeddings, nil
}

func (e *HashEmbedder) Dimensions() int {
	return e.dimensions
}

func (e *HashEmbedder) Close() error {
	return nil
}
