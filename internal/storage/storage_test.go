package storage_test

import (
	"context"
	"strings"
	"testing"

	"github.com/Fussballversager/data-pipeline-buddy/internal/config"
	"github.com/Fussballversager/data-pipeline-buddy/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestSketchObjectKey(t *testing.T) {
	userID := primitive.NewObjectID()
	sectionID := primitive.NewObjectID()

	key := storage.SketchObjectKey(userID, sectionID, "svg")
	assert.True(t, strings.HasPrefix(key, "sketches/"+userID.Hex()+"/"+sectionID.Hex()+"/"))
	assert.True(t, strings.HasSuffix(key, ".svg"))
	assert.NotEqual(t, key, storage.SketchObjectKey(userID, sectionID, "svg"))
}

func TestPresignedURLsAreSignedLocally(t *testing.T) {
	fs, err := storage.NewS3Storage(config.S3Config{
		Endpoint:        "http://localhost:9000",
		Region:          "eu-central-1",
		AccessKeyID:     "test",
		SecretAccessKey: "test-secret",
		BucketName:      "sketches",
	})
	require.NoError(t, err)

	ctx := context.Background()
	get, err := fs.GeneratePresignedDownloadURL(ctx, "sketches/a/b/c.svg", 0)
	require.NoError(t, err)
	assert.Contains(t, get, "localhost:9000/sketches/sketches/a/b/c.svg")
	assert.Contains(t, get, "X-Amz-Signature=")

	put, err := fs.GeneratePresignedUploadURL(ctx, "sketches/a/b/d.svg", "image/svg+xml", 0)
	require.NoError(t, err)
	assert.Contains(t, put, "X-Amz-Expires=900")
}
