package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"io"
	"os"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/ironsheep/bodymap-mcp/internal/anatomy"
)

// ErrImageLoad is returned when a reference image cannot be opened or decoded.
var ErrImageLoad = errors.New("reference image load failed")

// ReferenceSource opens the raw bytes of the reference image for a view.
type ReferenceSource interface {
	Open(view anatomy.View) (io.ReadCloser, error)
}

// FileSource reads reference images from files on disk, one path per view.
type FileSource map[anatomy.View]string

// Open opens the file configured for view.
func (s FileSource) Open(view anatomy.View) (io.ReadCloser, error) {
	path, ok := s[view]
	if !ok || path == "" {
		return nil, fmt.Errorf("no reference image configured for %s view", view)
	}
	return os.Open(path)
}

// BytesSource serves reference images from memory, one encoded image per view.
type BytesSource map[anatomy.View][]byte

// Open returns a reader over the encoded image for view.
func (s BytesSource) Open(view anatomy.View) (io.ReadCloser, error) {
	data, ok := s[view]
	if !ok {
		return nil, fmt.Errorf("no reference image for %s view", view)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// referenceEntry is one slot of the cache. img is only meaningful once
// loaded is true.
type referenceEntry struct {
	loaded bool
	img    image.Image
}

// ReferenceCache holds the decoded reference image for each view, already
// scaled to the surface size.
//
// The cache has exactly one slot per view and never evicts. A view is
// decoded at most once while it succeeds; failed loads leave the slot empty
// so the next Load retries. Concurrent first loads of the same view share a
// single decode.
//
// ReferenceCache is safe for concurrent use.
type ReferenceCache struct {
	source ReferenceSource
	width  int
	height int
	log    zerolog.Logger

	mu      sync.RWMutex
	entries map[anatomy.View]*referenceEntry
	group   singleflight.Group
}

// NewReferenceCache creates a cache that reads from source and scales every
// image to width×height.
func NewReferenceCache(source ReferenceSource, width, height int, log zerolog.Logger) *ReferenceCache {
	entries := make(map[anatomy.View]*referenceEntry, len(anatomy.Views))
	for _, v := range anatomy.Views {
		entries[v] = &referenceEntry{}
	}
	return &ReferenceCache{
		source:  source,
		width:   width,
		height:  height,
		log:     log.With().Str("component", "reference_cache").Logger(),
		entries: entries,
	}
}

// Get returns the cached image for view without loading. The boolean is the
// view's loaded flag; when false the image is nil.
func (c *ReferenceCache) Get(view anatomy.View) (image.Image, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[view]
	if !ok || !e.loaded {
		return nil, false
	}
	return e.img, true
}

// Loaded reports whether the view's image is in the cache.
func (c *ReferenceCache) Loaded(view anatomy.View) bool {
	_, ok := c.Get(view)
	return ok
}

// Load returns the reference image for view, decoding and scaling it on the
// first successful call. Errors wrap ErrImageLoad.
func (c *ReferenceCache) Load(view anatomy.View) (image.Image, error) {
	if img, ok := c.Get(view); ok {
		return img, nil
	}
	if !view.Valid() {
		return nil, fmt.Errorf("%w: unknown view %q", ErrImageLoad, view)
	}

	v, err, shared := c.group.Do(string(view), func() (interface{}, error) {
		// A concurrent caller may have filled the slot before we got here.
		if img, ok := c.Get(view); ok {
			return img, nil
		}
		img, err := c.decode(view)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.entries[view] = &referenceEntry{loaded: true, img: img}
		c.mu.Unlock()
		c.log.Debug().Str("view", view.String()).Msg("reference image cached")
		return img, nil
	})
	if err != nil {
		c.log.Warn().Err(err).Str("view", view.String()).Msg("reference image load failed")
		return nil, err
	}
	if shared {
		c.log.Debug().Str("view", view.String()).Msg("reference image load shared")
	}
	return v.(image.Image), nil
}

// Preload loads every view concurrently. It returns the first error; views
// that loaded successfully stay cached either way.
func (c *ReferenceCache) Preload() error {
	var g errgroup.Group
	for _, view := range anatomy.Views {
		view := view
		g.Go(func() error {
			_, err := c.Load(view)
			return err
		})
	}
	return g.Wait()
}

func (c *ReferenceCache) decode(view anatomy.View) (image.Image, error) {
	if c.source == nil {
		return nil, fmt.Errorf("%w: no reference source", ErrImageLoad)
	}
	rc, err := c.source.Open(view)
	if err != nil {
		return nil, fmt.Errorf("%w: %s view: %w", ErrImageLoad, view, err)
	}
	defer rc.Close()

	img, _, err := image.Decode(rc)
	if err != nil {
		return nil, fmt.Errorf("%w: %s view: failed to decode image: %w", ErrImageLoad, view, err)
	}
	return fitSurface(img, c.width, c.height), nil
}

// fitSurface scales img to exactly width×height, ignoring aspect ratio.
func fitSurface(img image.Image, width, height int) image.Image {
	b := img.Bounds()
	if b.Dx() == width && b.Dy() == height && b.Min == (image.Point{}) {
		return img
	}
	return imaging.Resize(img, width, height, imaging.Lanczos)
}
