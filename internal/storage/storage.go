// Package storage keeps uploaded post images.
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

var ErrTooLarge = errors.New("file too large")

// ImageStore saves an image and returns the URL clients load it from.
type ImageStore interface {
	Put(ctx context.Context, name, contentType string, r io.Reader) (string, error)
}

func newKey(prefix, name string) string {
	ext := strings.ToLower(path.Ext(name))
	return prefix + uuid.New().String() + ext
}

func readLimited(r io.Reader, maxSize int64) ([]byte, error) {
	if maxSize <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, maxSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxSize {
		return nil, ErrTooLarge
	}
	return data, nil
}
