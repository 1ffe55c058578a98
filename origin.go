package imagegate

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	awssession "github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"go.uber.org/zap"
)

// OriginObject is the raw stored image fetched for a key.  It is owned by
// the request that fetched it and is never cached across requests.
type OriginObject struct {
	Body          []byte
	ContentLength int64
}

type OriginErrorKind int

const (
	// OriginNotFound covers a missing key and an empty body after fetch.
	OriginNotFound OriginErrorKind = iota

	// OriginCorrupt covers an object fetched without a usable body.
	OriginCorrupt

	// OriginTransport covers every other store-level failure.  The cause
	// is carried for logging only, never for response bodies.
	OriginTransport
)

// OriginError reports a failed origin fetch.
type OriginError struct {
	Kind   OriginErrorKind
	Bucket string
	Key    string
	Cause  error
}

func (e *OriginError) Error() string {
	var kind string
	switch e.Kind {
	case OriginNotFound:
		kind = "not found"
	case OriginCorrupt:
		kind = "corrupt"
	default:
		kind = "transport failure"
	}
	if e.Cause != nil {
		return fmt.Sprintf("origin fetch %s/%s: %s: %s", e.Bucket, e.Key, kind, e.Cause.Error())
	}
	return fmt.Sprintf("origin fetch %s/%s: %s", e.Bucket, e.Key, kind)
}

func (e *OriginError) Unwrap() error { return e.Cause }

// Origin fetches stored image bytes for the pipeline.
type Origin interface {
	Fetch(ctx context.Context, bucket, key string) (*OriginObject, error)
}

type s3Origin struct {
	api    s3iface.S3API
	logger *zap.SugaredLogger
}

// NewS3Origin constructs an Origin backed by S3, using the ambient AWS
// session configuration.
func NewS3Origin(logger *zap.SugaredLogger) (Origin, error) {
	session, err := awssession.NewSession()
	if err != nil {
		return nil, err
	}
	return &s3Origin{api: s3.New(session), logger: logger}, nil
}

// NewS3OriginWithAPI constructs an Origin on an existing S3 API client.
func NewS3OriginWithAPI(api s3iface.S3API, logger *zap.SugaredLogger) Origin {
	return &s3Origin{api: api, logger: logger}
}

// Fetch retrieves one object.  Failures are mapped to OriginError kinds and
// surfaced immediately, there are no retries.
func (o *s3Origin) Fetch(ctx context.Context, bucket, key string) (*OriginObject, error) {
	out, err := o.api.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var aerr awserr.Error
		if errors.As(err, &aerr) {
			switch aerr.Code() {
			case s3.ErrCodeNoSuchKey, s3.ErrCodeNoSuchBucket, "NotFound":
				return nil, &OriginError{Kind: OriginNotFound, Bucket: bucket, Key: key, Cause: err}
			}
		}
		return nil, &OriginError{Kind: OriginTransport, Bucket: bucket, Key: key, Cause: err}
	}

	if out.Body == nil {
		return nil, &OriginError{Kind: OriginCorrupt, Bucket: bucket, Key: key}
	}
	defer out.Body.Close()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, &OriginError{Kind: OriginCorrupt, Bucket: bucket, Key: key, Cause: err}
	}
	if len(body) == 0 {
		// An object that exists but carries no bytes mirrors the
		// store's own not-found semantics.
		return nil, &OriginError{Kind: OriginNotFound, Bucket: bucket, Key: key}
	}

	o.logger.Debugw("Fetched origin object",
		"bucket", bucket,
		"key", key,
		"bytes", len(body),
	)

	return &OriginObject{
		Body:          body,
		ContentLength: aws.Int64Value(out.ContentLength),
	}, nil
}
