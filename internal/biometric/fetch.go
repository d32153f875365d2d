package biometric

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/saturnino-fabrica-de-software/accesssync/internal/domain"
)

// DefaultMaxImageSize bounds reference photo downloads
const DefaultMaxImageSize = 8 * 1024 * 1024

// HTTPFetcher loads reference images by URL. data: URIs with base64
// payloads are decoded in place.
type HTTPFetcher struct {
	client  *http.Client
	maxSize int64
}

func NewHTTPFetcher(timeout time.Duration, maxSize int64) *HTTPFetcher {
	if maxSize <= 0 {
		maxSize = DefaultMaxImageSize
	}
	return &HTTPFetcher{
		client:  &http.Client{Timeout: timeout},
		maxSize: maxSize,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, ref string) ([]byte, error) {
	if strings.HasPrefix(ref, "data:") {
		return decodeDataURI(ref, f.maxSize)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(fmt.Errorf("image reference %q: %w", ref, err))
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, domain.ErrBiometricUnavailable.WithError(fmt.Errorf("download image: %w", err))
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode >= 500:
		return nil, domain.ErrBiometricUnavailable.WithError(fmt.Errorf("download image: status %d", resp.StatusCode))
	case resp.StatusCode >= 400:
		return nil, domain.ErrInvalidImage.WithError(fmt.Errorf("download image: status %d", resp.StatusCode))
	}

	image, err := io.ReadAll(io.LimitReader(resp.Body, f.maxSize+1))
	if err != nil {
		return nil, domain.ErrBiometricUnavailable.WithError(fmt.Errorf("read image: %w", err))
	}
	if int64(len(image)) > f.maxSize {
		return nil, domain.ErrInvalidImage.WithError(fmt.Errorf("image exceeds %d bytes", f.maxSize))
	}
	if len(image) == 0 {
		return nil, domain.ErrInvalidImage.WithError(fmt.Errorf("empty image"))
	}
	return image, nil
}

func decodeDataURI(ref string, maxSize int64) ([]byte, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(ref, "data:"), ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return nil, domain.ErrInvalidImage.WithError(fmt.Errorf("unsupported data uri"))
	}
	if int64(base64.StdEncoding.DecodedLen(len(payload))) > maxSize {
		return nil, domain.ErrInvalidImage.WithError(fmt.Errorf("image exceeds %d bytes", maxSize))
	}
	image, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(fmt.Errorf("decode data uri: %w", err))
	}
	if len(image) == 0 {
		return nil, domain.ErrInvalidImage.WithError(fmt.Errorf("empty image"))
	}
	return image, nil
}
