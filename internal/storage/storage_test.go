package storage

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, body string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
}

func TestLocalService_ListObjects(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "b.pdf", "pdf")
	writeFile(t, root, "a/notes.doc", "notes")
	writeFile(t, root, ".hidden", "x")
	writeFile(t, root, ".git/config", "x")

	svc := NewLocalService(root)
	objects, err := svc.ListObjects(context.Background(), "", "")
	require.NoError(t, err)

	require.Len(t, objects, 2)
	assert.Equal(t, "a/notes.doc", objects[0].Key)
	assert.Equal(t, int64(5), objects[0].Size)
	assert.NotNil(t, objects[0].LastModified)
	assert.Equal(t, "b.pdf", objects[1].Key)

	objects, err = svc.ListObjects(context.Background(), "", "a/")
	require.NoError(t, err)
	require.Len(t, objects, 1)
	assert.Equal(t, "a/notes.doc", objects[0].Key)
}

func TestLocalService_ListMissingRoot(t *testing.T) {
	svc := NewLocalService(filepath.Join(t.TempDir(), "nope"))

	objects, err := svc.ListObjects(context.Background(), "", "")

	require.NoError(t, err)
	assert.Empty(t, objects)
}

func TestLocalService_OpenObject(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "files/report.pdf", "content")
	svc := NewLocalService(root)

	rc, info, err := svc.OpenObject(context.Background(), "files", "report.pdf")
	require.NoError(t, err)
	defer rc.Close()

	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "content", string(body))
	assert.Equal(t, int64(7), info.Size)
	assert.Equal(t, "application/pdf", info.ContentType)
}

func TestLocalService_OpenObjectRejectsEscapes(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "inside/a.txt", "a")
	writeFile(t, root, "secret.txt", "s")
	svc := NewLocalService(root)

	for _, key := range []string{"../secret.txt", "/secret.txt", "", "missing.txt", "."} {
		_, _, err := svc.OpenObject(context.Background(), "inside", key)
		assert.ErrorIs(t, err, ErrObjectNotFound, key)
	}

	_, _, err := svc.OpenObject(context.Background(), "..", "secret.txt")
	assert.Error(t, err)
}

type fakeS3 struct {
	pages   []*s3.ListObjectsV2Output
	calls   int
	objects map[string]string
}

func (f *fakeS3) ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	page := f.pages[f.calls]
	f.calls++
	return page, nil
}

func (f *fakeS3) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	body, ok := f.objects[aws.ToString(params.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(strings.NewReader(body)),
		ContentLength: aws.Int64(int64(len(body))),
	}, nil
}

func (f *fakeS3) HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	body, ok := f.objects[aws.ToString(params.Key)]
	if !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{
		ContentLength: aws.Int64(int64(len(body))),
		ContentType:   aws.String("application/pdf"),
	}, nil
}

type fakePresigner struct{}

func (fakePresigner) PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	return &v4.PresignedHTTPRequest{
		URL:    "https://" + aws.ToString(params.Bucket) + ".s3.test/" + aws.ToString(params.Key) + "?X-Amz-Signature=sig",
		Method: http.MethodGet,
	}, nil
}

func TestS3Service_StatObject(t *testing.T) {
	svc := NewS3ServiceWithAPI(&fakeS3{objects: map[string]string{"k.pdf": "data"}}, fakePresigner{})

	info, err := svc.StatObject(context.Background(), "bucket", "k.pdf")
	require.NoError(t, err)
	assert.Equal(t, "k.pdf", info.Key)
	assert.Equal(t, int64(4), info.Size)
	assert.Equal(t, "application/pdf", info.ContentType)

	_, err = svc.StatObject(context.Background(), "bucket", "missing.pdf")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestS3Service_GetObjectURL(t *testing.T) {
	svc := NewS3ServiceWithAPI(&fakeS3{}, fakePresigner{})

	url, err := svc.GetObjectURL(context.Background(), "bucket", "k.pdf", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "https://bucket.s3.test/k.pdf?X-Amz-Signature=sig", url)

	_, err = svc.GetObjectURL(context.Background(), "", "k.pdf", time.Minute)
	assert.Error(t, err)
}

func TestLocalService_StatObject(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.zip", "zip")
	svc := NewLocalService(root)

	info, err := svc.StatObject(context.Background(), "", "a.zip")
	require.NoError(t, err)
	assert.Equal(t, int64(3), info.Size)

	_, err = svc.StatObject(context.Background(), "", "b.zip")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestS3Service_ListObjectsPaginates(t *testing.T) {
	fake := &fakeS3{pages: []*s3.ListObjectsV2Output{
		{
			Contents:              []types.Object{{Key: aws.String("vault/a.pdf"), Size: aws.Int64(1)}, {Key: aws.String("vault/dir/")}},
			IsTruncated:           aws.Bool(true),
			NextContinuationToken: aws.String("next"),
		},
		{
			Contents: []types.Object{{Key: aws.String("vault/b.zip"), Size: aws.Int64(2)}},
		},
	}}
	svc := &S3Service{client: fake}

	objects, err := svc.ListObjects(context.Background(), "bucket", "vault/")
	require.NoError(t, err)

	assert.Equal(t, 2, fake.calls)
	require.Len(t, objects, 2)
	assert.Equal(t, "vault/a.pdf", objects[0].Key)
	assert.Equal(t, "vault/b.zip", objects[1].Key)
}

func TestS3Service_OpenObject(t *testing.T) {
	svc := &S3Service{client: &fakeS3{objects: map[string]string{"k.pdf": "data"}}}

	rc, info, err := svc.OpenObject(context.Background(), "bucket", "k.pdf")
	require.NoError(t, err)
	defer rc.Close()
	assert.Equal(t, int64(4), info.Size)

	_, _, err = svc.OpenObject(context.Background(), "bucket", "missing")
	assert.ErrorIs(t, err, ErrObjectNotFound)

	_, _, err = svc.OpenObject(context.Background(), "", "k.pdf")
	assert.Error(t, err)
}
