package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GridFSStore uploads blobs into a MongoDB GridFS bucket. Handles are the
// hex file ids; the upload path is kept as the GridFS filename.
type GridFSStore struct {
	bucket   *gridfs.Bucket
	hostName string
}

var _ Store = (*GridFSStore)(nil)

func NewGridFSStore(db *mongo.Database, hostName string) (*GridFSStore, error) {
	bucket, err := gridfs.NewBucket(db)
	if err != nil {
		return nil, fmt.Errorf("open gridfs bucket: %w", err)
	}
	return &GridFSStore{bucket: bucket, hostName: hostName}, nil
}

func (s *GridFSStore) Put(ctx context.Context, path, contentType string, r io.Reader) (string, error) {
	opts := options.GridFSUpload().SetMetadata(bson.M{"contentType": contentType})
	fileID, err := s.bucket.UploadFromStream(path, r, opts)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", path, err)
	}
	return fileID.Hex(), nil
}

func (s *GridFSStore) URL(ctx context.Context, handle string) (string, error) {
	if _, err := primitive.ObjectIDFromHex(handle); err != nil {
		return "", ErrNotFound
	}
	return filesURL(s.hostName, handle), nil
}

func (s *GridFSStore) Open(ctx context.Context, handle string) (io.ReadCloser, string, error) {
	fileID, err := primitive.ObjectIDFromHex(handle)
	if err != nil {
		return nil, "", ErrNotFound
	}

	stream, err := s.bucket.OpenDownloadStream(fileID)
	if errors.Is(err, gridfs.ErrFileNotFound) {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("open %s: %w", handle, err)
	}

	contentType := "application/octet-stream"
	if file := stream.GetFile(); file != nil && len(file.Metadata) > 0 {
		if value, err := file.Metadata.LookupErr("contentType"); err == nil {
			if ct, ok := value.StringValueOK(); ok && ct != "" {
				contentType = ct
			}
		}
	}
	return stream, contentType, nil
}
