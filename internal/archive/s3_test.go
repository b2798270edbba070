package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"vortex-go/internal/vortex"
)

// fakeS3 keeps objects in a map. Reports are small enough that the upload
// manager always takes the single PutObject path.
type fakeS3 struct {
	bucket  string
	objects map[string][]byte
	puts    []*s3.PutObjectInput
	getErr  error
}

func newFakeS3(bucket string) *fakeS3 {
	return &fakeS3{bucket: bucket, objects: map[string][]byte{}}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Key)] = data
	f.puts = append(f.puts, in)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) UploadPart(context.Context, *s3.UploadPartInput, ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
	return nil, fmt.Errorf("multipart not supported by fake")
}

func (f *fakeS3) CreateMultipartUpload(context.Context, *s3.CreateMultipartUploadInput, ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
	return nil, fmt.Errorf("multipart not supported by fake")
}

func (f *fakeS3) CompleteMultipartUpload(context.Context, *s3.CompleteMultipartUploadInput, ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
	return nil, fmt.Errorf("multipart not supported by fake")
}

func (f *fakeS3) AbortMultipartUpload(context.Context, *s3.AbortMultipartUploadInput, ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
	return &s3.AbortMultipartUploadOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("not found")}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) HeadBucket(_ context.Context, in *s3.HeadBucketInput, _ ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	if aws.ToString(in.Bucket) != f.bucket {
		return nil, &types.NotFound{}
	}
	return &s3.HeadBucketOutput{}, nil
}

func TestS3Archive_PutGet(t *testing.T) {
	client := newFakeS3("evidence")
	a := NewS3ArchiveWithClient("remote", "evidence", "cases/host1/", client)

	data := []byte(`{"run_id":"run-1"}`)
	if err := a.PutReport("run-1.json", bytes.NewReader(data), int64(len(data))); err != nil {
		t.Fatalf("PutReport() error = %v", err)
	}

	if _, ok := client.objects["cases/host1/run-1.json"]; !ok {
		t.Fatalf("object keys = %v, want prefixed key", client.objects)
	}
	if len(client.puts) != 1 || aws.ToString(client.puts[0].ContentType) != "application/json" {
		t.Errorf("unexpected put: %+v", client.puts)
	}

	var buf bytes.Buffer
	if err := a.GetReport("run-1.json", &buf); err != nil {
		t.Fatalf("GetReport() error = %v", err)
	}
	if !bytes.Equal(buf.Bytes(), data) {
		t.Errorf("GetReport() = %q, want %q", buf.Bytes(), data)
	}
}

func TestS3Archive_Errors(t *testing.T) {
	client := newFakeS3("evidence")
	a := NewS3ArchiveWithClient("remote", "evidence", "", client)

	t.Run("missing object", func(t *testing.T) {
		err := a.GetReport("absent.json", &bytes.Buffer{})
		if !errors.Is(err, vortex.ErrArchiveNotFound) {
			t.Errorf("GetReport() error = %v, want ErrArchiveNotFound", err)
		}
	})

	t.Run("transport error", func(t *testing.T) {
		client.getErr = fmt.Errorf("connection reset")
		defer func() { client.getErr = nil }()

		err := a.GetReport("any.json", &bytes.Buffer{})
		if err == nil || errors.Is(err, vortex.ErrArchiveNotFound) {
			t.Errorf("GetReport() error = %v, want a transport error", err)
		}
	})

	t.Run("size mismatch", func(t *testing.T) {
		err := a.PutReport("run.json.age", strings.NewReader("abc"), 4)
		if err == nil || !strings.Contains(err.Error(), "size mismatch") {
			t.Errorf("PutReport() error = %v, want size mismatch", err)
		}
	})

	t.Run("unprefixed key", func(t *testing.T) {
		if err := a.PutReport("r.json.age", strings.NewReader("x"), 1); err != nil {
			t.Fatal(err)
		}
		if _, ok := client.objects["r.json.age"]; !ok {
			t.Errorf("object keys = %v", client.objects)
		}
		if ct := aws.ToString(client.puts[len(client.puts)-1].ContentType); ct != "application/octet-stream" {
			t.Errorf("ContentType = %q", ct)
		}
	})
}

func TestS3Archive_ValidateSetup(t *testing.T) {
	client := newFakeS3("evidence")

	if err := NewS3ArchiveWithClient("ok", "evidence", "", client).ValidateSetup(); err != nil {
		t.Errorf("ValidateSetup() error = %v", err)
	}
	if err := NewS3ArchiveWithClient("bad", "other", "", client).ValidateSetup(); err == nil {
		t.Error("ValidateSetup() succeeded for an unknown bucket")
	}
}

func TestNewS3Archive_RequiresBucket(t *testing.T) {
	if _, err := NewS3Archive(context.Background(), "remote", S3Options{}); err == nil {
		t.Error("NewS3Archive() succeeded without a bucket")
	}
}
