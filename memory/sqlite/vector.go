package sqlite

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Embedding blobs are stored as a 4-byte little-endian dimension header
// followed by the float32 values, little-endian each.
const (
	blobHeaderSize = 4
	blobValueSize  = 4
)

// EncodeVector serializes an embedding into its storage blob. Empty vectors
// and non-finite values are rejected.
func EncodeVector(vector []float32) ([]byte, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("encode vector: empty vector")
	}
	if len(vector) > (math.MaxInt-blobHeaderSize)/blobValueSize {
		return nil, fmt.Errorf("encode vector: dimension too large: %d", len(vector))
	}

	blob := make([]byte, blobHeaderSize+len(vector)*blobValueSize)
	binary.LittleEndian.PutUint32(blob[:blobHeaderSize], uint32(len(vector)))

	for i, value := range vector {
		if !isFinite(float64(value)) {
			return nil, fmt.Errorf("encode vector: non-finite value at index %d", i)
		}
		binary.LittleEndian.PutUint32(blob[blobHeaderSize+i*blobValueSize:], math.Float32bits(value))
	}

	return blob, nil
}

// DecodeVector parses a blob created by EncodeVector, validating the header
// against the payload length and every value for finiteness.
func DecodeVector(blob []byte) ([]float32, error) {
	if len(blob) < blobHeaderSize {
		return nil, fmt.Errorf("decode vector: blob too short: %d bytes", len(blob))
	}

	dim := int(binary.LittleEndian.Uint32(blob[:blobHeaderSize]))
	if dim <= 0 || dim > (math.MaxInt-blobHeaderSize)/blobValueSize {
		return nil, fmt.Errorf("decode vector: invalid dimension: %d", dim)
	}
	if len(blob) != blobHeaderSize+dim*blobValueSize {
		return nil, fmt.Errorf("decode vector: dimension %d does not match payload of %d bytes", dim, len(blob)-blobHeaderSize)
	}

	vector := make([]float32, dim)
	for i := range vector {
		value := math.Float32frombits(binary.LittleEndian.Uint32(blob[blobHeaderSize+i*blobValueSize:]))
		if !isFinite(float64(value)) {
			return nil, fmt.Errorf("decode vector: non-finite value at index %d", i)
		}
		vector[i] = value
	}

	return vector, nil
}

// CosineSimilarity computes the cosine similarity of two equal-dimension
// vectors, clamped to [-1, 1] against float rounding.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) == 0 || len(b) == 0 {
		return 0, fmt.Errorf("cosine similarity: empty vector")
	}
	if len(a) != len(b) {
		return 0, fmt.Errorf("cosine similarity: dimension mismatch: %d vs %d", len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		ai, bi := float64(a[i]), float64(b[i])
		dot += ai * bi
		normA += ai * ai
		normB += bi * bi
	}

	if normA == 0 || normB == 0 {
		return 0, fmt.Errorf("cosine similarity: zero vector norm")
	}

	score := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if score > 1 {
		score = 1
	} else if score < -1 {
		score = -1
	}

	return score, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
