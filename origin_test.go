package imagegate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"go.uber.org/zap"
)

type fakeS3 struct {
	s3iface.S3API

	output *s3.GetObjectOutput
	err    error

	// last request seen
	bucket string
	key    string
}

func (f *fakeS3) GetObjectWithContext(ctx aws.Context, in *s3.GetObjectInput, opts ...request.Option) (*s3.GetObjectOutput, error) {
	f.bucket = aws.StringValue(in.Bucket)
	f.key = aws.StringValue(in.Key)
	if f.err != nil {
		return nil, f.err
	}
	return f.output, nil
}

func getObjectOutput(body []byte) *s3.GetObjectOutput {
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: aws.Int64(int64(len(body))),
	}
}

func originKind(t *testing.T, err error) OriginErrorKind {
	t.Helper()
	var oerr *OriginError
	if !errors.As(err, &oerr) {
		t.Fatalf("error %v is not an OriginError", err)
	}
	return oerr.Kind
}

func TestS3Origin_Fetch(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop().Sugar()

	t.Run("success", func(t *testing.T) {
		fake := &fakeS3{output: getObjectOutput([]byte("image bytes"))}
		origin := NewS3OriginWithAPI(fake, logger)

		object, err := origin.Fetch(ctx, "some-bucket", "photo.jpg")
		if err != nil {
			t.Fatal("error caught", err)
		}
		if got, want := string(object.Body), "image bytes"; got != want {
			t.Errorf("body is %q, want %q", got, want)
		}
		if got, want := object.ContentLength, int64(11); got != want {
			t.Errorf("content length is %d, want %d", got, want)
		}
		if fake.bucket != "some-bucket" || fake.key != "photo.jpg" {
			t.Errorf("fetched %s/%s, want some-bucket/photo.jpg", fake.bucket, fake.key)
		}
	})

	t.Run("no such key maps to not found", func(t *testing.T) {
		fake := &fakeS3{err: awserr.New(s3.ErrCodeNoSuchKey, "no such key", nil)}
		origin := NewS3OriginWithAPI(fake, logger)

		_, err := origin.Fetch(ctx, "some-bucket", "missing.jpg")
		if got, want := originKind(t, err), OriginNotFound; got != want {
			t.Errorf("kind is %v, want %v", got, want)
		}
	})

	t.Run("other store errors map to transport", func(t *testing.T) {
		fake := &fakeS3{err: awserr.New("AccessDenied", "denied", nil)}
		origin := NewS3OriginWithAPI(fake, logger)

		_, err := origin.Fetch(ctx, "some-bucket", "photo.jpg")
		if got, want := originKind(t, err), OriginTransport; got != want {
			t.Errorf("kind is %v, want %v", got, want)
		}
	})

	t.Run("non-aws errors map to transport", func(t *testing.T) {
		fake := &fakeS3{err: fmt.Errorf("connection reset")}
		origin := NewS3OriginWithAPI(fake, logger)

		_, err := origin.Fetch(ctx, "some-bucket", "photo.jpg")
		if got, want := originKind(t, err), OriginTransport; got != want {
			t.Errorf("kind is %v, want %v", got, want)
		}
	})

	t.Run("missing body maps to corrupt", func(t *testing.T) {
		fake := &fakeS3{output: &s3.GetObjectOutput{}}
		origin := NewS3OriginWithAPI(fake, logger)

		_, err := origin.Fetch(ctx, "some-bucket", "photo.jpg")
		if got, want := originKind(t, err), OriginCorrupt; got != want {
			t.Errorf("kind is %v, want %v", got, want)
		}
	})

	t.Run("empty body maps to not found", func(t *testing.T) {
		fake := &fakeS3{output: getObjectOutput(nil)}
		origin := NewS3OriginWithAPI(fake, logger)

		_, err := origin.Fetch(ctx, "some-bucket", "photo.jpg")
		if got, want := originKind(t, err), OriginNotFound; got != want {
			t.Errorf("kind is %v, want %v", got, want)
		}
	})
}
