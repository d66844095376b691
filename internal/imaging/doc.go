// Package imaging renders body-map marks over reference silhouettes.
//
// The package owns three pieces of the marking engine:
//   - ReferenceCache: one decoded, pre-scaled reference image per view
//   - Surface: the fixed 300×600 raster everything is drawn on
//   - Renderer: draws the reference image, committed marks and the pending
//     point onto a Surface in a fixed back-to-front order
//
// # Coordinate System
//
// Pixel coordinates are 0-based with (0,0) at the top-left of the surface:
//   - X: horizontal position, increasing rightward
//   - Y: vertical position, increasing downward
//
// Marks carry a tagged coordinate (see marks.Coordinate). Normalized values
// are scaled by the surface width and height; absolute values are drawn
// as-is. The surface size never changes, so legacy pixel marks line up.
//
// # Thread Safety
//
// ReferenceCache is safe for concurrent use. Surface and Renderer are not;
// a marking session draws from a single goroutine.
//
// # Error Handling
//
// Reference image failures are returned wrapped in ErrImageLoad and are not
// cached, so a later Load retries. Rendering itself never fails: with no
// reference image the surface is cleared and markers are skipped.
package imaging
