// Package vision detects labels in photographed items.
package vision

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/option"
	vision "google.golang.org/api/vision/v1"

	"github.com/fridgelingo/fridgelingo/internal/domain"
)

const labelDetection = "LABEL_DETECTION"

// LabelDetector returns labels for an image, most confident first.
type LabelDetector interface {
	DetectLabels(ctx context.Context, image []byte) ([]string, error)
}

// GoogleClient implements LabelDetector with Cloud Vision label detection.
type GoogleClient struct {
	svc        *vision.Service
	maxResults int64
	timeout    time.Duration
}

// NewGoogleClient creates a Cloud Vision client authenticated with an API key.
// Extra options are appended after the key, which lets tests point the client
// at a local endpoint.
func NewGoogleClient(ctx context.Context, apiKey string, maxResults int64, timeout time.Duration, opts ...option.ClientOption) (*GoogleClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("vision: API key cannot be empty")
	}
	if maxResults <= 0 {
		maxResults = 10
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	svc, err := vision.NewService(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("vision: create service: %w", err)
	}

	return &GoogleClient{svc: svc, maxResults: maxResults, timeout: timeout}, nil
}

// DetectLabels sends one LABEL_DETECTION request and returns the label
// descriptions in the order the service ranked them.
func (c *GoogleClient) DetectLabels(ctx context.Context, image []byte) ([]string, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("%w: empty image", domain.ErrInvalidInput)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req := &vision.BatchAnnotateImagesRequest{
		Requests: []*vision.AnnotateImageRequest{{
			Image: &vision.Image{Content: base64.StdEncoding.EncodeToString(image)},
			Features: []*vision.Feature{{
				Type:       labelDetection,
				MaxResults: c.maxResults,
			}},
		}},
	}

	resp, err := c.svc.Images.Annotate(req).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("%w: vision annotate: %v", domain.ErrUpstreamUnavailable, err)
	}

	return labelsFrom(resp)
}

func labelsFrom(resp *vision.BatchAnnotateImagesResponse) ([]string, error) {
	if resp == nil || len(resp.Responses) == 0 {
		return nil, nil
	}

	first := resp.Responses[0]
	if first.Error != nil && first.Error.Code != 0 {
		return nil, fmt.Errorf("%w: vision error %d: %s", domain.ErrUpstreamUnavailable, first.Error.Code, first.Error.Message)
	}

	labels := make([]string, 0, len(first.LabelAnnotations))
	for _, a := range first.LabelAnnotations {
		if a == nil {
			continue
		}
		if d := strings.TrimSpace(a.Description); d != "" {
			labels = append(labels, d)
		}
	}
	return labels, nil
}
