package face

import (
	"context"
	"fmt"

	"github.com/saturnino-fabrica-de-software/accesssync/internal/config"
	"github.com/saturnino-fabrica-de-software/accesssync/internal/provider"
	"github.com/saturnino-fabrica-de-software/accesssync/internal/provider/deepface"
	"github.com/saturnino-fabrica-de-software/accesssync/internal/provider/mock"
	"github.com/saturnino-fabrica-de-software/accesssync/internal/provider/rekognition"
)

// ProviderType names a face backend
type ProviderType string

const (
	// ProviderTypeDeepFace calls a self-hosted DeepFace server
	ProviderTypeDeepFace ProviderType = "deepface"
	// ProviderTypeRekognition is AWS Rekognition; detection only
	ProviderTypeRekognition ProviderType = "rekognition"
	// ProviderTypeMock hashes image bytes, for dev and dry runs
	ProviderTypeMock ProviderType = "mock"
	// ProviderTypeNone disables the face-presence check
	ProviderTypeNone ProviderType = "none"
)

// NewEmbedder builds the feature extractor named by FACE_PROVIDER.
//
// Environment variables:
//   - FACE_PROVIDER: "deepface" or "mock" (default: "deepface")
//   - DEEPFACE_URL: DeepFace API URL (default: "http://localhost:5000")
func NewEmbedder(cfg *config.Config) (provider.Embedder, error) {
	switch ProviderType(cfg.FaceProvider) {
	case ProviderTypeDeepFace, "":
		return newDeepFace(cfg), nil
	case ProviderTypeMock:
		return mock.New(), nil
	default:
		return nil, fmt.Errorf("unknown face provider: %s (supported: %s, %s)",
			cfg.FaceProvider, ProviderTypeDeepFace, ProviderTypeMock)
	}
}

// NewDetector builds the optional face-presence check named by FACE_DETECTOR.
// A nil Detector with a nil error means detection is disabled.
//
// Environment variables:
//   - FACE_DETECTOR: "none", "deepface", "rekognition" or "mock" (default: "none")
//   - AWS_REGION: AWS region for Rekognition (default: "us-east-1")
//   - AWS_ACCESS_KEY_ID / AWS_SECRET_ACCESS_KEY: via the AWS SDK credential chain
func NewDetector(ctx context.Context, cfg *config.Config) (provider.Detector, error) {
	switch ProviderType(cfg.FaceDetector) {
	case ProviderTypeNone, "":
		return nil, nil
	case ProviderTypeDeepFace:
		return newDeepFace(cfg), nil
	case ProviderTypeMock:
		return mock.New(), nil
	case ProviderTypeRekognition:
		rekogConfig := rekognition.DefaultConfig()
		if cfg.AWSRegion != "" {
			rekogConfig.Region = cfg.AWSRegion
		}
		det, err := rekognition.NewDetectorFromEnv(ctx, rekogConfig)
		if err != nil {
			return nil, fmt.Errorf("create rekognition detector: %w", err)
		}
		return det, nil
	default:
		return nil, fmt.Errorf("unknown face detector: %s (supported: %s, %s, %s, %s)",
			cfg.FaceDetector, ProviderTypeNone, ProviderTypeDeepFace, ProviderTypeRekognition, ProviderTypeMock)
	}
}

func newDeepFace(cfg *config.Config) *deepface.Provider {
	deepfaceConfig := deepface.DefaultConfig()
	if cfg.DeepFaceURL != "" {
		deepfaceConfig.BaseURL = cfg.DeepFaceURL
	}
	if cfg.CallTimeout > 0 {
		deepfaceConfig.Timeout = cfg.CallTimeout
	}
	return deepface.NewProvider(deepfaceConfig)
}
