package snapshot

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

func testSurface() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 300, 600))
	for y := 0; y < 600; y++ {
		for x := 0; x < 300; x++ {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), 90, 255})
		}
	}
	return img
}

func TestEncode(t *testing.T) {
	src := testSurface()
	data, err := Encode(src)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	decoded, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("snapshot is not a valid PNG: %v", err)
	}
	if decoded.Bounds() != src.Bounds() {
		t.Errorf("bounds: got %v, want %v", decoded.Bounds(), src.Bounds())
	}
	r, g, b, _ := decoded.At(120, 45).RGBA()
	if uint8(r>>8) != 120 || uint8(g>>8) != 45 || uint8(b>>8) != 90 {
		t.Errorf("pixel (120,45): got (%d,%d,%d)", r>>8, g>>8, b>>8)
	}
}

func TestEncode_DoesNotModifySource(t *testing.T) {
	src := testSurface()
	before := append([]uint8(nil), src.Pix...)
	if _, err := Encode(src); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if !bytes.Equal(before, src.Pix) {
		t.Error("Encode modified the surface")
	}
}

func TestExporter_Success(t *testing.T) {
	var gotHint string
	var gotData []byte
	up := UploaderFunc(func(ctx context.Context, data []byte, hint string) (string, error) {
		gotHint, gotData = hint, data
		return "https://files.example/abc.png", nil
	})
	e := NewExporter(up, zerolog.Nop())

	url, err := e.Export(context.Background(), testSurface(), "bodymaps/abc.png")
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if url != "https://files.example/abc.png" {
		t.Errorf("url: got %q", url)
	}
	if gotHint != "bodymaps/abc.png" {
		t.Errorf("hint: got %q", gotHint)
	}
	if _, err := png.Decode(bytes.NewReader(gotData)); err != nil {
		t.Errorf("uploaded bytes are not PNG: %v", err)
	}
	if e.Busy() {
		t.Error("exporter still busy after Export returned")
	}
}

func TestExporter_UploadFailure(t *testing.T) {
	up := UploaderFunc(func(ctx context.Context, data []byte, hint string) (string, error) {
		return "", errors.New("connection refused")
	})
	e := NewExporter(up, zerolog.Nop())

	_, err := e.Export(context.Background(), testSurface(), "x.png")
	if !errors.Is(err, ErrUpload) {
		t.Fatalf("expected ErrUpload, got %v", err)
	}
	if e.Busy() {
		t.Error("failed export must release the slot")
	}

	// A manual retry is allowed.
	if _, err := e.Export(context.Background(), testSurface(), "x.png"); !errors.Is(err, ErrUpload) {
		t.Errorf("retry: expected ErrUpload, got %v", err)
	}
}

func TestExporter_EmptyURL(t *testing.T) {
	up := UploaderFunc(func(ctx context.Context, data []byte, hint string) (string, error) {
		return "", nil
	})
	e := NewExporter(up, zerolog.Nop())
	if _, err := e.Export(context.Background(), testSurface(), "x.png"); !errors.Is(err, ErrUpload) {
		t.Errorf("expected ErrUpload, got %v", err)
	}
}

func TestExporter_NoUploader(t *testing.T) {
	e := NewExporter(nil, zerolog.Nop())
	if _, err := e.Export(context.Background(), testSurface(), "x.png"); !errors.Is(err, ErrNoUploader) {
		t.Errorf("expected ErrNoUploader, got %v", err)
	}
}

func TestExporter_SingleInFlight(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	up := UploaderFunc(func(ctx context.Context, data []byte, hint string) (string, error) {
		close(started)
		<-release
		return "https://files.example/1.png", nil
	})
	e := NewExporter(up, zerolog.Nop())

	job, err := e.Begin(testSurface())
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if job.Size() == 0 {
		t.Error("job has no encoded bytes")
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if _, err := job.Upload(context.Background(), "1.png"); err != nil {
			t.Errorf("Upload failed: %v", err)
		}
	}()
	<-started

	if !e.Busy() {
		t.Error("exporter should be busy during upload")
	}
	if _, err := e.Begin(testSurface()); !errors.Is(err, ErrExportInFlight) {
		t.Errorf("second Begin: expected ErrExportInFlight, got %v", err)
	}

	close(release)
	wg.Wait()

	if e.Busy() {
		t.Error("exporter busy after upload finished")
	}
	if _, err := job.Upload(context.Background(), "1.png"); err == nil {
		t.Error("second Upload on the same job should fail")
	}
}
