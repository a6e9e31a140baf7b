package storage

import (
	"testing"

	"grievance-portal/pkg/config"

	"github.com/stretchr/testify/assert"
)

func TestPublicBaseURL(t *testing.T) {
	assert.Equal(t, "http://localhost:9000/media",
		PublicBaseURL(config.StorageConfig{Endpoint: "localhost:9000", Bucket: "media"}))
	assert.Equal(t, "https://s3.example.org/media",
		PublicBaseURL(config.StorageConfig{Endpoint: "s3.example.org", Bucket: "media", UseSSL: true}))
	assert.Equal(t, "https://cdn.example.org/media",
		PublicBaseURL(config.StorageConfig{Endpoint: "minio:9000", Bucket: "media", PublicBaseURL: "https://cdn.example.org"}))
}
