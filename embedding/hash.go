package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/kusumaprabha/UltraShip/models"
)

// DefaultHashDim is the vector dimension of the hash embedder.
const DefaultHashDim = 256

// Ensure HashEmbedder implements the interface.
var _ models.Embedder = (*HashEmbedder)(nil)

// HashEmbedder is a deterministic bag-of-words embedder: each normalized
// token is hashed into a fixed-size bucket vector of term counts, then the
// vector is L2-normalized. Texts sharing words get cosine-similar vectors,
// which is all development and tests need; it stands in where no embedding
// model is reachable.
type HashEmbedder struct {
	dim int
}

// NewHashEmbedder builds a hash embedder; dim <= 0 selects the default.
func NewHashEmbedder(dim int) *HashEmbedder {
	if dim <= 0 {
		dim = DefaultHashDim
	}
	return &HashEmbedder{dim: dim}
}

// Name identifies the embedder in health output and logs.
func (e *HashEmbedder) Name() string {
	return "hash"
}

// Embed maps text to its normalized hashed term-count vector. Never fails;
// empty text yields the zero vector.
func (e *HashEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vec := make([]float32, e.dim)
	for _, raw := range strings.Fields(text) {
		token := strings.TrimFunc(strings.ToLower(raw), func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if token == "" {
			continue
		}
		h := fnv.New32a()
		h.Write([]byte(token))
		vec[h.Sum32()%uint32(e.dim)]++
	}

	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum > 0 {
		norm := float32(math.Sqrt(sum))
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec, nil
}
