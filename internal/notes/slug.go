// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package notes

import (
	"strings"

	"github.com/pdiddy/bookmark-vault/pkg/types"
)

const maxSlugLen = 50

// noteSlug picks the file name stem: the title, else the post text, else
// the identity.
func noteSlug(rec types.CategorizedRecord) string {
	for _, src := range []string{rec.Title, rec.Raw.Text} {
		if s := Slugify(src); s != "" {
			return s
		}
	}
	if s := Slugify(rec.Raw.ID); s != "" {
		return s
	}
	return "note"
}

// Slugify lowercases s, replaces runs of characters outside [a-z0-9] with a
// single hyphen, trims hyphens from both ends, and caps the result at 50
// characters.
func Slugify(s string) string {
	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	out := b.String()
	if len(out) > maxSlugLen {
		out = strings.TrimRight(out[:maxSlugLen], "-")
	}
	return out
}
