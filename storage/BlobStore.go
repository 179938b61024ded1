package storage

import (
	"context"
	"errors"
	"io"
	"strings"
)

var ErrNotFound = errors.New("blob not found")

// Store is the blob store attachments are uploaded to. Put returns an opaque
// handle; URL turns a handle into something a client can fetch.
type Store interface {
	Put(ctx context.Context, path, contentType string, r io.Reader) (string, error)
	URL(ctx context.Context, handle string) (string, error)
	Open(ctx context.Context, handle string) (io.ReadCloser, string, error)
}

// filesURL builds the URL under which this process serves a handle
// (see the GET /files route).
func filesURL(hostName, handle string) string {
	if hostName != "" && !strings.HasSuffix(hostName, "/") {
		hostName += "/"
	}
	return hostName + "files/" + handle
}
