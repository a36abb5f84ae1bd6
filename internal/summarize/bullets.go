// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package summarize

import "strings"

// MinBullets is the smallest number of bullets any answer carries.
const MinBullets = 3

// FillerBullet pads answers that came back with too few bullets.
const FillerBullet = "This is educational information, not medical advice; discuss individual care with a licensed clinician."

// EnsureMinBullets trims each entry, strips leading list markers, drops
// empties and pads with FillerBullet up to MinBullets. Order is kept.
func EnsureMinBullets(bullets []string) []string {
	out := make([]string, 0, max(len(bullets), MinBullets))
	for _, b := range bullets {
		b = strings.TrimSpace(b)
		b = strings.TrimLeft(b, "-*• ")
		b = strings.TrimSpace(b)
		if b != "" {
			out = append(out, b)
		}
	}
	for len(out) < MinBullets {
		out = append(out, FillerBullet)
	}
	return out
}
