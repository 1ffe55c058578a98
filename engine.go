package imagegate

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	raven "github.com/getsentry/raven-go"
	"go.uber.org/zap"

	"github.com/mediafold/imagegate/transform"
)

// Engine runs the per-request decision pipeline: origin and profile checks,
// the format branch, the no-upscale bypass, the payload ceiling, and the
// resize itself.
type Engine struct {
	config *Config
	origin Origin
	logger *zap.SugaredLogger
}

func NewEngine(config *Config, origin Origin, logger *zap.SugaredLogger) *Engine {
	return &Engine{
		config: config,
		origin: origin,
		logger: logger,
	}
}

// Process turns one parsed request into a response envelope.  Domain errors
// (missing objects, unknown profiles, unsupported extensions, corrupt
// bodies) are resolved into failure envelopes here; only unexpected store or
// codec failures are returned as errors, for the invoking runtime to log
// and alert on.
func (e *Engine) Process(ctx context.Context, req ParsedRequest, upstream *UpstreamResponse) (*EdgeResponse, error) {
	base := upstream.Headers

	// The runtime already knows the object is gone; do not fetch again.
	if upstream.Status == strconv.Itoa(http.StatusNotFound) {
		return FailureResponse(base, http.StatusNotFound, "Not Found"), nil
	}

	profile, ok := e.config.Profile(req.Profile)
	if !ok {
		// A missing profile reads the same as a missing object from
		// the caller's viewpoint.
		e.logger.Infow("Unknown profile requested",
			"profile", req.Profile,
			"key", req.ObjectKey,
		)
		return FailureResponse(base, http.StatusNotFound, "Not Found"), nil
	}

	contentType, ok := e.config.ContentType(req.Extension)
	if !ok {
		e.logger.Infow("Unsupported extension requested",
			"extension", req.Extension,
			"key", req.ObjectKey,
		)
		return FailureResponse(base, http.StatusForbidden, "Unsupported extension."), nil
	}

	bucket := e.config.BucketFor(req.Profile)
	object, err := e.origin.Fetch(ctx, bucket, req.ObjectKey)
	if err != nil {
		return e.resolveOriginError(base, err)
	}

	// Vector images pass through untouched, nothing to probe or resize.
	if req.Extension == "svg" || req.Extension == "svg+xml" {
		return e.finishInline(base, object.Body, contentType, req), nil
	}

	if profile.Passthrough() {
		return e.finishInline(base, object.Body, contentType, req), nil
	}

	// No-upscale bypass: a source already in the wire format and smaller
	// than the target box would only be upscaled, so serve it as-is.
	if dims, ok := transform.Probe(object.Body); ok && dims.Format == WireFormat {
		if profile.MaxWidth > dims.Width || profile.MaxHeight > dims.Height {
			return e.finishInline(base, object.Body, WireContentType, req), nil
		}
	}

	animated := req.Extension == "gif" || req.Extension == "webp"
	resized, err := transform.Resize(object.Body, profile.MaxWidth, profile.MaxHeight, animated)
	if err != nil {
		e.logger.Warnw("Error transforming image",
			"bucket", bucket,
			"key", req.ObjectKey,
			"error", err.Error(),
		)
		raven.CaptureError(err, nil)
		return nil, err
	}

	return e.finishInline(base, resized, WireContentType, req), nil
}

// resolveOriginError maps fetch failures onto terminal envelopes.  Transport
// failures stay errors so the runtime can distinguish them from ordinary
// client-facing outcomes.
func (e *Engine) resolveOriginError(base EdgeHeaders, err error) (*EdgeResponse, error) {
	var oerr *OriginError
	if errors.As(err, &oerr) {
		switch oerr.Kind {
		case OriginNotFound:
			return FailureResponse(base, http.StatusNotFound, "Not Found"), nil
		case OriginCorrupt:
			return FailureResponse(base, http.StatusInternalServerError, "The file is not normal."), nil
		}
	}

	e.logger.Warnw("Error fetching origin object",
		"error", err.Error(),
	)
	raven.CaptureError(err, nil)
	return nil, err
}

// finishInline applies the payload ceiling before any body is returned
// inline.  Oversized bodies are never truncated, the request is deferred to
// the fallback service instead.
func (e *Engine) finishInline(base EdgeHeaders, body []byte, contentType string, req ParsedRequest) *EdgeResponse {
	if len(body) > e.config.MaxBodyBytes {
		location := e.config.FallbackURL(req.Profile, req.ObjectKey)
		e.logger.Infow("Body exceeds inline ceiling, redirecting",
			"bytes", len(body),
			"location", location,
		)
		return RedirectResponse(base, location)
	}
	return SuccessResponse(base, body, contentType)
}
