package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path"
	"strings"
	"time"
)

// maxResponseBytes bounds how much of an upload response is read.
const maxResponseBytes = 64 * 1024

// HTTPUploader posts snapshots as multipart forms to a remote storage
// endpoint.
//
// The request carries the fields:
//   - file: the PNG bytes, named after the destination hint's base name
//   - destination: the full destination hint
//   - secret: the API key, when one is configured
//
// A 2xx response must have a JSON body with a non-empty "url" field.
type HTTPUploader struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPUploader creates an uploader for endpoint. A zero timeout means 30s.
func NewHTTPUploader(endpoint, apiKey string, timeout time.Duration) *HTTPUploader {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPUploader{
		endpoint:   strings.TrimRight(endpoint, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type uploadResponse struct {
	URL string `json:"url"`
}

// Upload sends data and returns the URL reported by the endpoint. Errors
// wrap ErrUpload.
func (u *HTTPUploader) Upload(ctx context.Context, data []byte, destinationHint string) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	_ = writer.WriteField("destination", destinationHint)
	if u.apiKey != "" {
		_ = writer.WriteField("secret", u.apiKey)
	}

	filename := path.Base(destinationHint)
	if filename == "." || filename == "/" {
		filename = "snapshot.png"
	}
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("%w: failed to create form file: %w", ErrUpload, err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("%w: failed to write form file: %w", ErrUpload, err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("%w: failed to finish form: %w", ErrUpload, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("%w: failed to create request: %w", ErrUpload, err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: upload request failed: %w", ErrUpload, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("%w: failed to read response: %w", ErrUpload, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: upload returned status %d", ErrUpload, resp.StatusCode)
	}

	var out uploadResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("%w: invalid response body: %w", ErrUpload, err)
	}
	if out.URL == "" {
		return "", fmt.Errorf("%w: response has no url", ErrUpload)
	}
	return out.URL, nil
}
