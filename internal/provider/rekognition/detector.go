package rekognition

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"github.com/aws/smithy-go"

	"github.com/saturnino-fabrica-de-software/accesssync/internal/domain"
	"github.com/saturnino-fabrica-de-software/accesssync/internal/provider"
)

const (
	// maxImageSize is the maximum inline image size AWS Rekognition accepts (5MB)
	maxImageSize = 5 * 1024 * 1024
	minImageSize = 100
)

// Detector checks face presence with AWS Rekognition DetectFaces.
// Rekognition does not expose embeddings, so it only backs the detection step.
type Detector struct {
	api    API
	config Config
}

var _ provider.Detector = (*Detector)(nil)

func NewDetector(api API, cfg Config) *Detector {
	return &Detector{api: api, config: cfg}
}

// NewDetectorFromEnv builds the detector with the default AWS credential chain
func NewDetectorFromEnv(ctx context.Context, cfg Config) (*Detector, error) {
	api, err := NewAPI(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create rekognition client: %w", err)
	}
	return NewDetector(api, cfg), nil
}

func validateImage(image []byte) error {
	if len(image) < minImageSize {
		return domain.ErrInvalidImage.WithError(fmt.Errorf("image too small (%d bytes, minimum %d)", len(image), minImageSize))
	}
	if len(image) > maxImageSize {
		return domain.ErrInvalidImage.WithError(fmt.Errorf("image too large (%d bytes, maximum %d)", len(image), maxImageSize))
	}
	return nil
}

// DetectFaces returns every face above the configured confidence.
// An image with no faces is not an error here; callers decide.
func (d *Detector) DetectFaces(ctx context.Context, image []byte) ([]provider.DetectedFace, error) {
	if err := validateImage(image); err != nil {
		return nil, err
	}

	output, err := d.api.DetectFaces(ctx, &rekognition.DetectFacesInput{
		Image:      &types.Image{Bytes: image},
		Attributes: []types.Attribute{types.AttributeDefault},
	})
	if err != nil {
		return nil, parseError(err)
	}

	faces := make([]provider.DetectedFace, 0, len(output.FaceDetails))
	for _, detail := range output.FaceDetails {
		confidence := aws.ToFloat32(detail.Confidence)
		if confidence < d.config.MinConfidence {
			continue
		}

		face := provider.DetectedFace{
			Confidence:   float64(confidence) / 100.0,
			QualityScore: qualityScore(detail.Quality),
		}
		if box := detail.BoundingBox; box != nil {
			face.BoundingBox = provider.BoundingBox{
				X:      float64(aws.ToFloat32(box.Left)),
				Y:      float64(aws.ToFloat32(box.Top)),
				Width:  float64(aws.ToFloat32(box.Width)),
				Height: float64(aws.ToFloat32(box.Height)),
			}
		}
		faces = append(faces, face)
	}

	return faces, nil
}

// qualityScore weights sharpness over brightness, both normalized from 0-100
func qualityScore(quality *types.ImageQuality) float64 {
	if quality == nil {
		return 0.0
	}
	brightness := float64(aws.ToFloat32(quality.Brightness)) / 100.0
	sharpness := float64(aws.ToFloat32(quality.Sharpness)) / 100.0
	return brightness*0.3 + sharpness*0.7
}

func parseError(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case errCodeAccessDenied:
			return fmt.Errorf("detect faces: %w", ErrInvalidCredentials)
		case errCodeInvalidParameter, errCodeInvalidImage, errCodeImageTooLarge:
			return domain.ErrInvalidImage.WithError(fmt.Errorf("%s: %s", apiErr.ErrorCode(), apiErr.ErrorMessage()))
		case errCodeThrottling:
			return fmt.Errorf("detect faces: %w", ErrThrottled)
		}
	}
	return fmt.Errorf("detect faces: %w", err)
}
