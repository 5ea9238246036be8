package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockS3Client struct {
	keys   []string
	bodies [][]byte
	types  []string
	err    error
}

func (m *mockS3Client) PutObject(_ context.Context, input *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.err != nil {
		return nil, m.err
	}
	body, _ := io.ReadAll(input.Body)
	m.keys = append(m.keys, *input.Key)
	m.bodies = append(m.bodies, body)
	m.types = append(m.types, *input.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func TestLogoStore_Upload(t *testing.T) {
	mock := &mockS3Client{}
	store := NewLogoStore(mock, "logos-bucket", "us-east-1", "", nil)

	url, err := store.Upload(context.Background(), 42, "image/png", 4, bytes.NewReader([]byte("\x89PNG")))
	require.NoError(t, err)

	require.Len(t, mock.keys, 1)
	assert.True(t, strings.HasPrefix(mock.keys[0], "logos/42/"))
	assert.True(t, strings.HasSuffix(mock.keys[0], ".png"))
	assert.Equal(t, "image/png", mock.types[0])
	assert.Equal(t, []byte("\x89PNG"), mock.bodies[0])
	assert.Equal(t, "https://logos-bucket.s3.us-east-1.amazonaws.com/"+mock.keys[0], url)
}

func TestLogoStore_CustomBaseURL(t *testing.T) {
	mock := &mockS3Client{}
	store := NewLogoStore(mock, "b", "eu-west-1", "https://cdn.example.com/", nil)
	url, err := store.Upload(context.Background(), 1, "image/jpeg", 1, strings.NewReader("x"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "https://cdn.example.com/logos/1/"))
}

func TestLogoStore_Rejections(t *testing.T) {
	store := NewLogoStore(&mockS3Client{}, "b", "us-east-1", "", nil)

	_, err := store.Upload(context.Background(), 1, "application/pdf", 1, strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrUnsupportedType)

	_, err = store.Upload(context.Background(), 1, "image/png", MaxLogoBytes+1, strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrTooLarge)

	disabled := NewLogoStore(nil, "", "", "", nil)
	assert.False(t, disabled.Enabled())
	_, err = disabled.Upload(context.Background(), 1, "image/png", 1, strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestLogoStore_PutError(t *testing.T) {
	boom := errors.New("access denied")
	store := NewLogoStore(&mockS3Client{err: boom}, "b", "us-east-1", "", nil)
	_, err := store.Upload(context.Background(), 1, "image/png", 1, strings.NewReader("x"))
	assert.ErrorIs(t, err, boom)
}
