package helper

import (
	"fmt"
	"io"
	"mime/multipart"

	"threadhive/composer"
)

// ReadAttachments loads uploaded multipart files into memory. Files are read
// up to one byte past maxSize so oversized ones are still recognised as
// such without buffering them whole.
func ReadAttachments(files []*multipart.FileHeader, maxSize int64) ([]composer.Attachment, error) {
	attachments := make([]composer.Attachment, 0, len(files))
	for _, fh := range files {
		src, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(io.LimitReader(src, maxSize+1))
		src.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", fh.Filename, err)
		}

		contentType := fh.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		attachments = append(attachments, composer.Attachment{
			Name:        fh.Filename,
			ContentType: contentType,
			Data:        data,
		})
	}
	return attachments, nil
}
