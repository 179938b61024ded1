package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

// presignTTL is the longest lifetime S3 allows for a presigned GET.
const presignTTL = 7 * 24 * time.Hour

// S3Store uploads blobs to an S3 bucket. Handles are object keys and URLs
// are presigned GETs.
type S3Store struct {
	client   *s3.S3
	uploader *s3manager.Uploader
	bucket   string
	prefix   string
}

var _ Store = (*S3Store)(nil)

func NewS3Store(region, bucket, prefix string) (*S3Store, error) {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(region),
	})
	if err != nil {
		return nil, fmt.Errorf("error creating AWS session: %w", err)
	}
	return &S3Store{
		client:   s3.New(sess),
		uploader: s3manager.NewUploader(sess),
		bucket:   bucket,
		prefix:   prefix,
	}, nil
}

func (s *S3Store) Put(ctx context.Context, p, contentType string, r io.Reader) (string, error) {
	key := path.Join(s.prefix, p)
	_, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        r,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return key, nil
}

func (s *S3Store) URL(ctx context.Context, handle string) (string, error) {
	req, _ := s.client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(handle),
	})
	req.SetContext(ctx)
	url, err := req.Presign(presignTTL)
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", handle, err)
	}
	return url, nil
}

func (s *S3Store) Open(ctx context.Context, handle string) (io.ReadCloser, string, error) {
	out, err := s.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(handle),
	})
	if err != nil {
		var aerr awserr.Error
		if errors.As(err, &aerr) && aerr.Code() == s3.ErrCodeNoSuchKey {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("get %s: %w", handle, err)
	}
	return out.Body, aws.StringValue(out.ContentType), nil
}
