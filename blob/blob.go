// Package blob pulls inline binary attachments out of message content and
// stores them content-addressed by sha256.
package blob

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"regexp"
	"strings"

	"github.com/sonnes/unitrans/core"
)

// placeholderRE matches the inline-image markers agents leave in text next to
// an attachment: <image ...>, </image>, [Image #1], [image], [Image: name.png].
var placeholderRE = regexp.MustCompile(`(?i)<image\b[^>]*>|</image>|\[image(?:\s*#\d+|:[^\]]*)?\]`)

// Extractor accumulates blobs for a single conversion. Identical bytes
// extracted any number of times collapse to one entry.
type Extractor struct {
	blobs core.BlobMap
}

// NewExtractor returns an empty Extractor.
func NewExtractor() *Extractor {
	return &Extractor{blobs: make(core.BlobMap)}
}

// Blobs returns the accumulated blob map. Ownership passes to the caller.
func (e *Extractor) Blobs() core.BlobMap {
	return e.blobs
}

// FromDataURL decodes a "data:<mediaType>;base64,<payload>" URL. It returns
// false when s is not a base64 data URL or the payload does not decode.
func (e *Extractor) FromDataURL(s string) (core.BlobRef, bool) {
	mediaType, payload, ok := ParseDataURL(s)
	if !ok {
		return core.BlobRef{}, false
	}
	return e.FromBase64(payload, mediaType)
}

// FromBase64 decodes a base64 payload with a separately known media type.
func (e *Extractor) FromBase64(payload, mediaType string) (core.BlobRef, bool) {
	data, err := decodeBase64(payload)
	if err != nil || len(data) == 0 {
		return core.BlobRef{}, false
	}
	return e.Add(data, mediaType), true
}

// Add stores data and returns its reference. An existing entry with the same
// digest is reused.
func (e *Extractor) Add(data []byte, mediaType string) core.BlobRef {
	sum := sha256.Sum256(data)
	key := hex.EncodeToString(sum[:])
	if existing, ok := e.blobs[key]; ok {
		return core.BlobRef{SHA256: key, MediaType: existing.MediaType}
	}
	if mediaType == "" {
		mediaType = "application/octet-stream"
	}
	e.blobs[key] = core.Blob{Data: data, MediaType: mediaType}
	return core.BlobRef{SHA256: key, MediaType: mediaType}
}

// IsDataURL reports whether s looks like a base64 data URL.
func IsDataURL(s string) bool {
	_, _, ok := ParseDataURL(s)
	return ok
}

// ParseDataURL splits a base64 data URL into media type and payload.
func ParseDataURL(s string) (mediaType, payload string, ok bool) {
	rest, found := strings.CutPrefix(strings.TrimSpace(s), "data:")
	if !found {
		return "", "", false
	}
	meta, payload, found := strings.Cut(rest, ",")
	if !found {
		return "", "", false
	}
	mediaType, found = strings.CutSuffix(meta, ";base64")
	if !found {
		return "", "", false
	}
	// Parameters such as ";charset=utf-8" are dropped.
	mediaType, _, _ = strings.Cut(mediaType, ";")
	return mediaType, payload, true
}

// StripPlaceholders removes inline-image markup from text and trims the
// whitespace left behind.
func StripPlaceholders(text string) string {
	if !placeholderRE.MatchString(text) {
		return text
	}
	return strings.TrimSpace(placeholderRE.ReplaceAllString(text, ""))
}

func decodeBase64(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if data, err := base64.StdEncoding.DecodeString(s); err == nil {
		return data, nil
	}
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
}
