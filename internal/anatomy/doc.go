// Package anatomy classifies points on a human silhouette into named regions.
//
// The silhouette is assumed centered in a 1:2 (width:height) frame with
// standard humanoid proportions. Points are given as normalized fractions of
// that frame:
//   - X: 0 = left edge of the frame, 1 = right edge
//   - Y: 0 = top of the head, 1 = soles of the feet
//
// # Side Convention
//
// Labels name the patient's side, not the viewer's. On the Anterior (front)
// view the viewer faces the subject, so the left half of the frame is the
// patient's Right. On the Posterior (back) view the viewer stands behind the
// subject and the left half of the frame is the patient's Left.
//
// # Bands
//
// Classification is a fixed two-axis lookup. The vertical axis picks a body
// band (head, neck, torso levels, limbs); the horizontal axis decides between
// the torso column (0.25 < x < 0.75) and the arm columns outside it. Each band
// carries one anterior and one posterior label.
//
// Classify is pure and total: every input yields exactly one non-empty label.
// Out-of-range inputs are clamped to [0,1] before lookup.
package anatomy
