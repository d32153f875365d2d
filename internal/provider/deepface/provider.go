package deepface

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"math"

	"github.com/saturnino-fabrica-de-software/accesssync/internal/domain"
	"github.com/saturnino-fabrica-de-software/accesssync/internal/provider"
)

const (
	// minFaceArea is the minimum face area (in pixels²) for reliable detection
	minFaceArea = 2500 // 50x50 pixels
	// maxFaceArea is used for confidence scaling
	maxFaceArea = 250000 // 500x500 pixels
)

// Provider detects and embeds faces through a DeepFace server
type Provider struct {
	client    *Client
	normalize bool
}

var (
	_ provider.Detector = (*Provider)(nil)
	_ provider.Embedder = (*Provider)(nil)
)

func NewProvider(config Config) *Provider {
	return &Provider{
		client:    NewClient(config),
		normalize: config.Normalize,
	}
}

func (p *Provider) DetectFaces(ctx context.Context, image []byte) ([]provider.DetectedFace, error) {
	resp, err := p.client.Represent(ctx, base64.StdEncoding.EncodeToString(image))
	if err != nil {
		return nil, fmt.Errorf("detect faces: %w", mapClientError(err))
	}

	faces := make([]provider.DetectedFace, 0, len(resp.Results))
	for _, result := range resp.Results {
		area := float64(result.FacialArea.W * result.FacialArea.H)

		confidence := scaleByArea(area, 0.5, 0.7, 0.99)
		if result.FaceConfidence != nil {
			confidence = *result.FaceConfidence
		}

		faces = append(faces, provider.DetectedFace{
			BoundingBox: provider.BoundingBox{
				X:      float64(result.FacialArea.X),
				Y:      float64(result.FacialArea.Y),
				Width:  float64(result.FacialArea.W),
				Height: float64(result.FacialArea.H),
			},
			Confidence:   confidence,
			QualityScore: scaleByArea(area, 0.4, 0.6, 0.95),
		})
	}

	return faces, nil
}

// scaleByArea maps face size onto [lo, hi]; faces under minFaceArea get floor.
// DeepFace reports neither confidence nor quality, larger faces embed better.
func scaleByArea(area, floor, lo, hi float64) float64 {
	if area < minFaceArea {
		return floor
	}
	normalized := math.Min(1.0, (area-minFaceArea)/(maxFaceArea-minFaceArea))
	return lo + normalized*(hi-lo)
}

// Embed returns the embedding of the single face in the image
func (p *Provider) Embed(ctx context.Context, image []byte) ([]float64, error) {
	resp, err := p.client.Represent(ctx, base64.StdEncoding.EncodeToString(image))
	if err != nil {
		return nil, fmt.Errorf("embed: %w", mapClientError(err))
	}

	switch len(resp.Results) {
	case 0:
		return nil, domain.ErrNoFaceDetected.WithError(ErrNoFaceInResponse)
	case 1:
	default:
		return nil, domain.ErrMultipleFaces.WithError(fmt.Errorf("%d faces in reference image", len(resp.Results)))
	}

	embedding := resp.Results[0].Embedding
	if len(embedding) == 0 {
		return nil, ErrInvalidResponse
	}
	if p.normalize {
		embedding = NormalizeEmbedding(embedding)
	}
	return embedding, nil
}

// mapClientError turns DeepFace's "face could not be detected" 400 into the domain error
func mapClientError(err error) error {
	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode >= 400 && statusErr.StatusCode < 500 {
		return domain.ErrNoFaceDetected.WithError(err)
	}
	return err
}
