package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewS3Storage(t *testing.T) {
	store, err := NewS3Storage(S3Config{
		Bucket:          "videogen-assets",
		Region:          "eu-west-1",
		AccessKeyID:     "AKIATEST",
		SecretAccessKey: "secret",
	})
	require.NoError(t, err)

	assert.Equal(t, "videogen-assets", store.bucket)
	assert.Equal(t, "eu-west-1", store.region)
	assert.Equal(t, "s3", store.Name())
}

func TestNewS3Storage_CustomEndpoint(t *testing.T) {
	store, err := NewS3Storage(S3Config{
		Bucket:   "videogen-assets",
		Region:   "us-east-1",
		Endpoint: "http://localhost:9000",
	})
	require.NoError(t, err)
	assert.NotNil(t, store.client)
}
