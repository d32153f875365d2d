package mock

import (
	"context"
	"crypto/sha256"
	"math"

	"github.com/saturnino-fabrica-de-software/accesssync/internal/domain"
	"github.com/saturnino-fabrica-de-software/accesssync/internal/provider"
)

const (
	embeddingDimension = 128
	minImageSize       = 64
)

// Provider is a deterministic detector and embedder for development and dry runs.
// The same image bytes always produce the same unit-length vector, so a
// re-delivered photo dedups against itself at distance zero.
type Provider struct{}

func New() *Provider {
	return &Provider{}
}

// DetectFaces reports a single centered face for any plausible image
func (p *Provider) DetectFaces(ctx context.Context, image []byte) ([]provider.DetectedFace, error) {
	if len(image) < minImageSize {
		return nil, domain.ErrInvalidImage
	}

	return []provider.DetectedFace{
		{
			BoundingBox:  provider.BoundingBox{X: 0.1, Y: 0.1, Width: 0.8, Height: 0.8},
			Confidence:   0.99,
			QualityScore: 0.95,
		},
	}, nil
}

// Embed derives the vector from the sha256 of the image
func (p *Provider) Embed(ctx context.Context, image []byte) ([]float64, error) {
	if len(image) < minImageSize {
		return nil, domain.ErrInvalidImage
	}
	return generateEmbedding(image), nil
}

func generateEmbedding(image []byte) []float64 {
	hash := sha256.Sum256(image)
	embedding := make([]float64, embeddingDimension)

	for i := range embedding {
		// spread each hash byte over [-1, 1], rotating by position so
		// repeated bytes do not collapse the vector
		b := hash[i%len(hash)] ^ byte(i/len(hash)*31)
		embedding[i] = (float64(b)/255.0)*2 - 1
	}

	var norm float64
	for _, v := range embedding {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return embedding
	}

	for i := range embedding {
		embedding[i] /= norm
	}
	return embedding
}

var (
	_ provider.Detector = (*Provider)(nil)
	_ provider.Embedder = (*Provider)(nil)
)
