package storage

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Default expiry duration for presigned URLs
const DefaultPresignedURLExpiry = 15 * time.Minute

// FileStorage defines the interface for sketch object storage.
type FileStorage interface {
	// GeneratePresignedUploadURL creates a temporary URL that allows a PUT of
	// one sketch directly to the storage provider.
	GeneratePresignedUploadURL(ctx context.Context, objectKey string, contentType string, expires time.Duration) (string, error)

	// GeneratePresignedDownloadURL creates a temporary URL for viewing a sketch.
	GeneratePresignedDownloadURL(ctx context.Context, objectKey string, expires time.Duration) (string, error)
}

// SketchObjectKey builds a fresh object key for a section's sketch.
func SketchObjectKey(userID, sectionID primitive.ObjectID, extension string) string {
	return path.Join("sketches", userID.Hex(), sectionID.Hex(), fmt.Sprintf("%s.%s", uuid.NewString(), extension))
}
