package provider

import "context"

// Detector locates faces in an image. The biometric pipeline uses it to
// reject reference photos that do not contain exactly one face.
type Detector interface {
	DetectFaces(ctx context.Context, image []byte) ([]DetectedFace, error)
}

// Embedder turns a single-face image into a feature vector. Vectors from the
// same embedder are comparable by Euclidean distance; dimensionality is
// embedder-specific.
type Embedder interface {
	Embed(ctx context.Context, image []byte) ([]float64, error)
}

// DetectedFace represents a detected face in the image
type DetectedFace struct {
	BoundingBox  BoundingBox `json:"bounding_box"`
	Confidence   float64     `json:"confidence"`
	QualityScore float64     `json:"quality_score"`
}

// BoundingBox represents the face area in the image
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}
