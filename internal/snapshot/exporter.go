// Package snapshot flattens a rendered body map to PNG and hands it to an
// upload collaborator.
//
// At most one export is in flight per Exporter. The surface is encoded when
// the export begins, so callers may keep drawing while the upload runs.
// There is no cancellation of a started upload and no retry; a failed
// export leaves nothing behind and can be started again by the caller.
package snapshot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"sync/atomic"

	"github.com/anthonynsimon/bild/clone"
	"github.com/rs/zerolog"
)

var (
	// ErrUpload is returned when the upload collaborator fails or returns
	// no URL.
	ErrUpload = errors.New("snapshot upload failed")
	// ErrExportInFlight is returned when an export is requested while
	// another is still uploading.
	ErrExportInFlight = errors.New("snapshot export already in progress")
	// ErrNoUploader is returned when no upload collaborator is configured.
	ErrNoUploader = errors.New("no snapshot uploader configured")
)

// Uploader stores snapshot bytes remotely and returns a URL for them.
type Uploader interface {
	Upload(ctx context.Context, data []byte, destinationHint string) (string, error)
}

// UploaderFunc adapts a function to the Uploader interface.
type UploaderFunc func(ctx context.Context, data []byte, destinationHint string) (string, error)

// Upload calls f.
func (f UploaderFunc) Upload(ctx context.Context, data []byte, destinationHint string) (string, error) {
	return f(ctx, data, destinationHint)
}

// Encode copies img into a flat RGBA raster and encodes it as PNG.
// img is only read.
func Encode(img image.Image) ([]byte, error) {
	flat := clone.AsRGBA(img)
	var buf bytes.Buffer
	if err := png.Encode(&buf, flat); err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// Exporter runs snapshot exports against one Uploader.
type Exporter struct {
	uploader Uploader
	log      zerolog.Logger
	inflight atomic.Bool
}

// NewExporter creates an exporter. uploader may be nil, in which case every
// export fails with ErrNoUploader.
func NewExporter(uploader Uploader, log zerolog.Logger) *Exporter {
	return &Exporter{
		uploader: uploader,
		log:      log.With().Str("component", "snapshot").Logger(),
	}
}

// Busy reports whether an export is currently in flight.
func (e *Exporter) Busy() bool {
	return e.inflight.Load()
}

// Job is an export that has encoded its surface and holds the in-flight
// slot until Upload returns.
type Job struct {
	exporter *Exporter
	data     []byte
	used     atomic.Bool
}

// Begin reserves the export slot and encodes surface immediately.
func (e *Exporter) Begin(surface image.Image) (*Job, error) {
	if e.uploader == nil {
		return nil, ErrNoUploader
	}
	if !e.inflight.CompareAndSwap(false, true) {
		return nil, ErrExportInFlight
	}

	data, err := Encode(surface)
	if err != nil {
		e.inflight.Store(false)
		return nil, err
	}
	return &Job{exporter: e, data: data}, nil
}

// Size returns the encoded snapshot size in bytes.
func (j *Job) Size() int {
	return len(j.data)
}

// Upload sends the encoded snapshot and releases the export slot. It may
// be called once; later calls fail.
func (j *Job) Upload(ctx context.Context, destinationHint string) (string, error) {
	if !j.used.CompareAndSwap(false, true) {
		return "", fmt.Errorf("snapshot job already uploaded")
	}
	e := j.exporter
	defer e.inflight.Store(false)

	log := e.log.With().Str("destination", destinationHint).Int("bytes", len(j.data)).Logger()
	log.Debug().Msg("uploading snapshot")

	url, err := e.uploader.Upload(ctx, j.data, destinationHint)
	if err != nil {
		if !errors.Is(err, ErrUpload) {
			err = fmt.Errorf("%w: %w", ErrUpload, err)
		}
		log.Warn().Err(err).Msg("snapshot upload failed")
		return "", err
	}
	if url == "" {
		err := fmt.Errorf("%w: uploader returned an empty URL", ErrUpload)
		log.Warn().Err(err).Msg("snapshot upload failed")
		return "", err
	}

	log.Info().Str("url", url).Msg("snapshot uploaded")
	return url, nil
}

// Export encodes surface and uploads it, blocking until the upload ends.
func (e *Exporter) Export(ctx context.Context, surface image.Image, destinationHint string) (string, error) {
	job, err := e.Begin(surface)
	if err != nil {
		return "", err
	}
	return job.Upload(ctx, destinationHint)
}
