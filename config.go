// Package imagegate implements an on-the-fly image transformation gateway.
// Incoming content-delivery requests name a profile and an object key; the
// gateway fetches the original bytes from the object store and either passes
// them through, resizes them, or redirects to the fallback service.  For
// typical use see cmd/image-edge-lambda/main.go.
package imagegate

import (
	"fmt"
	"time"
)

const (
	// WireFormat is the single canonical format all resized raster images
	// are re-encoded to, with its content type.
	WireFormat      = "webp"
	WireContentType = "image/webp"

	// MaxInlineBodyBytes is the ceiling for any body returned inline.
	// Larger bodies are deferred to the fallback service via redirect.
	MaxInlineBodyBytes = 1048576

	// PipelineDeadline is the time budget for producing a response before
	// the deadline guard forces a redirect.
	PipelineDeadline = 5000 * time.Millisecond
)

const (
	defaultGeneralBucket = "imagegate-images"
	defaultProfileBucket = "imagegate-profile-images"
	defaultFallbackHost  = "fallback.imagegate.net"
)

// Profile is a named target-size policy.  A zero box means the original is
// served without resizing.
type Profile struct {
	MaxWidth  int
	MaxHeight int
}

// Passthrough reports whether this profile serves originals unresized.
func (p Profile) Passthrough() bool {
	return p.MaxWidth == 0 && p.MaxHeight == 0
}

// Config carries the lookup tables and limits the pipeline consults.  It is
// built once at process start and never mutated afterwards.
type Config struct {
	// GeneralBucket holds all images except profile images.
	GeneralBucket string

	// ProfileBucket holds profile images, selected only by the "profile"
	// profile name.
	ProfileBucket string

	// FallbackHost serves oversized and timed-out requests after a redirect.
	FallbackHost string

	Profiles     map[string]Profile
	ContentTypes map[string]string

	MaxBodyBytes int
	Deadline     time.Duration
}

// DefaultConfig returns the standard profile and content-type tables.
func DefaultConfig() *Config {
	return &Config{
		GeneralBucket: defaultGeneralBucket,
		ProfileBucket: defaultProfileBucket,
		FallbackHost:  defaultFallbackHost,
		Profiles: map[string]Profile{
			"original":      {},
			"profile":       {MaxWidth: 200, MaxHeight: 200},
			"thumbnail":     {MaxWidth: 300, MaxHeight: 300},
			"miniThumbnail": {MaxWidth: 150, MaxHeight: 150},
			"resized":       {MaxWidth: 1440, MaxHeight: 1440},
		},
		ContentTypes: map[string]string{
			"png":     "image/png",
			"jpg":     "image/jpeg",
			"jpeg":    "image/jpeg",
			"gif":     "image/gif",
			"webp":    "image/webp",
			"svg":     "image/svg+xml",
			"svg+xml": "image/svg+xml",
		},
		MaxBodyBytes: MaxInlineBodyBytes,
		Deadline:     PipelineDeadline,
	}
}

// Profile looks up the target-size policy for a profile name.
func (c *Config) Profile(name string) (Profile, bool) {
	p, ok := c.Profiles[name]
	return p, ok
}

// ContentType looks up the canonical content type for a file extension.
func (c *Config) ContentType(extension string) (string, bool) {
	ct, ok := c.ContentTypes[extension]
	return ct, ok
}

// BucketFor selects the bucket a profile routes to.  Only the "profile"
// profile reads from the profile-image bucket, everything else reads from
// the general bucket.
func (c *Config) BucketFor(profile string) string {
	if profile == "profile" {
		return c.ProfileBucket
	}
	return c.GeneralBucket
}

// FallbackURL builds the redirect target for requests the gateway defers to
// the fallback service.
func (c *Config) FallbackURL(profile, filename string) string {
	return fmt.Sprintf("https://%s/prod/image/%s/%s", c.FallbackHost, profile, filename)
}
