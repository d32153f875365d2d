package biometric

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/saturnino-fabrica-de-software/accesssync/internal/domain"
	"github.com/saturnino-fabrica-de-software/accesssync/internal/provider"
)

// DefaultThreshold is the Euclidean distance under which two faces are the same person
const DefaultThreshold = 0.6

// Fetcher loads the raw bytes behind an image reference
type Fetcher interface {
	Fetch(ctx context.Context, ref string) ([]byte, error)
}

// VectorCache short-circuits embedding for image content seen before
type VectorCache interface {
	Get(ctx context.Context, image []byte) ([]float64, bool, error)
	Put(ctx context.Context, image []byte, vector []float64) error
}

// Sample is an extracted biometric: the image the access-control system
// receives as face data and the vector used for duplicate detection.
type Sample struct {
	ImageRef string
	Image    []byte
	Vector   []float64
}

type Matcher struct {
	fetcher   Fetcher
	detector  provider.Detector
	embedder  provider.Embedder
	cache     VectorCache
	threshold float64
	logger    *slog.Logger
}

type Option func(*Matcher)

// WithDetector requires exactly one face before embedding
func WithDetector(d provider.Detector) Option {
	return func(m *Matcher) {
		m.detector = d
	}
}

func WithCache(c VectorCache) Option {
	return func(m *Matcher) {
		m.cache = c
	}
}

func WithThreshold(t float64) Option {
	return func(m *Matcher) {
		if t > 0 {
			m.threshold = t
		}
	}
}

func NewMatcher(fetcher Fetcher, embedder provider.Embedder, logger *slog.Logger, opts ...Option) *Matcher {
	m := &Matcher{
		fetcher:   fetcher,
		embedder:  embedder,
		threshold: DefaultThreshold,
		logger:    logger.With("component", "biometric"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Matcher) Threshold() float64 {
	return m.threshold
}

// Distance is the Euclidean distance between two vectors. Vectors that are
// empty or of different dimension are incomparable and never match.
func (m *Matcher) Distance(a, b []float64) float64 {
	return provider.EuclideanDistance(a, b)
}

// Extract downloads the reference image and derives its feature vector.
func (m *Matcher) Extract(ctx context.Context, imageRef string) (*Sample, error) {
	if imageRef == "" {
		return nil, domain.ErrInvalidImage.WithError(errors.New("empty image reference"))
	}

	image, err := m.fetcher.Fetch(ctx, imageRef)
	if err != nil {
		return nil, err
	}

	sample := &Sample{ImageRef: imageRef, Image: image}

	if m.cache != nil {
		vector, ok, err := m.cache.Get(ctx, image)
		if err != nil {
			m.logger.Warn("vector cache read failed", "error", err)
		}
		if ok {
			sample.Vector = vector
			return sample, nil
		}
	}

	if m.detector != nil {
		faces, err := m.detector.DetectFaces(ctx, image)
		if err != nil {
			return nil, classify(fmt.Errorf("detect faces: %w", err))
		}
		switch len(faces) {
		case 0:
			return nil, domain.ErrNoFaceDetected
		case 1:
		default:
			return nil, domain.ErrMultipleFaces.WithError(fmt.Errorf("%d faces in reference image", len(faces)))
		}
	}

	vector, err := m.embedder.Embed(ctx, image)
	if err != nil {
		return nil, classify(fmt.Errorf("embed: %w", err))
	}
	sample.Vector = vector

	if m.cache != nil {
		if err := m.cache.Put(ctx, image, vector); err != nil {
			m.logger.Warn("vector cache write failed", "error", err)
		}
	}

	m.logger.Debug("biometric extracted", "dimensions", len(vector))
	return sample, nil
}

// classify keeps domain errors as they are and marks anything else as an unavailable backend
func classify(err error) error {
	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return domain.ErrBiometricUnavailable.WithError(err)
}
