package storage

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"shareit/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePutter struct {
	in   *s3.PutObjectInput
	body string
	err  error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.in = in
	data, _ := io.ReadAll(in.Body)
	f.body = string(data)
	return &s3.PutObjectOutput{}, f.err
}

func TestS3Uploader_Upload(t *testing.T) {
	fake := &fakePutter{}
	u := &S3Uploader{client: fake, bucket: "backups"}

	require.NoError(t, u.Upload(context.Background(), "shareit/backup.db.zst", strings.NewReader("payload")))
	assert.Equal(t, "backups", aws.ToString(fake.in.Bucket))
	assert.Equal(t, "shareit/backup.db.zst", aws.ToString(fake.in.Key))
	assert.Equal(t, "payload", fake.body)

	fake.err = errors.New("denied")
	assert.Error(t, u.Upload(context.Background(), "k", strings.NewReader("x")))
}

func TestS3Uploader_PathStyleEndpoint(t *testing.T) {
	var (
		mu     sync.Mutex
		method string
		path   string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		method, path = r.Method, r.URL.Path
		mu.Unlock()
		_, _ = io.Copy(io.Discard, r.Body)
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	u, err := NewS3Uploader(context.Background(), config.S3Config{
		Bucket:    "backups",
		Region:    "us-east-1",
		Endpoint:  srv.URL,
		AccessKey: "minio",
		SecretKey: "minio123",
	})
	require.NoError(t, err)

	require.NoError(t, u.Upload(context.Background(), "shareit/backup.db", strings.NewReader("data")))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/backups/shareit/backup.db", path)
}
