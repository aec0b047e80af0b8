package llm

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// ErrInvalidImageURL is returned when an image reference is not a usable URL.
var ErrInvalidImageURL = errors.New("invalid image URL")

// ImageResolver turns image URLs into raw bytes for the inference backend.
// http(s) URLs are downloaded; data: URLs are decoded inline.
type ImageResolver struct {
	MaxBytes int64
	client   *http.Client
}

// NewImageResolver creates a resolver that rejects images larger than maxBytes.
func NewImageResolver(httpClient *http.Client, maxBytes int64) *ImageResolver {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &ImageResolver{
		MaxBytes: maxBytes,
		client:   httpClient,
	}
}

// Resolve returns the image bytes referenced by ref.
func (r *ImageResolver) Resolve(ctx context.Context, ref string) ([]byte, error) {
	u, err := url.Parse(ref)
	if err != nil || u.Scheme == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidImageURL, ref)
	}

	switch strings.ToLower(u.Scheme) {
	case "data":
		return r.decodeDataURL(ref)
	case "http", "https":
		if u.Host == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidImageURL, ref)
		}
		return r.download(ctx, u.String())
	default:
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidImageURL, u.Scheme)
	}
}

// decodeDataURL decodes "data:[<mediatype>][;base64],<data>".
func (r *ImageResolver) decodeDataURL(ref string) ([]byte, error) {
	meta, payload, ok := strings.Cut(ref[len("data:"):], ",")
	if !ok {
		return nil, fmt.Errorf("%w: malformed data URL", ErrInvalidImageURL)
	}

	var data []byte
	if strings.HasSuffix(strings.ToLower(meta), ";base64") {
		decoded, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: bad base64 payload: %v", ErrInvalidImageURL, err)
		}
		data = decoded
	} else {
		unescaped, err := url.PathUnescape(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: bad data URL payload: %v", ErrInvalidImageURL, err)
		}
		data = []byte(unescaped)
	}

	if r.MaxBytes > 0 && int64(len(data)) > r.MaxBytes {
		return nil, fmt.Errorf("image exceeds %d bytes", r.MaxBytes)
	}
	return data, nil
}

func (r *ImageResolver) download(ctx context.Context, ref string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("failed to download image: %s", resp.Status)
	}

	body := io.Reader(resp.Body)
	if r.MaxBytes > 0 {
		body = io.LimitReader(resp.Body, r.MaxBytes+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if r.MaxBytes > 0 && int64(len(data)) > r.MaxBytes {
		return nil, fmt.Errorf("image exceeds %d bytes", r.MaxBytes)
	}
	return data, nil
}
