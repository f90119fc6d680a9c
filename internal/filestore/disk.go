// Package filestore keeps request attachments on the local disk.
package filestore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Freeeeeet/supervision/internal/model"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// Disk stores files under a root directory.
type Disk struct {
	root string
}

func NewDisk(root string) (*Disk, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &Disk{root: root}, nil
}

// Put writes r to <root>/<dir>/<uuid><ext> and sniffs its mime type.
func (d *Disk) Put(ctx context.Context, dir, originalName string, r io.Reader) (model.StoredFile, error) {
	if err := ctx.Err(); err != nil {
		return model.StoredFile{}, err
	}

	cleanDir := filepath.Clean("/" + dir)[1:]
	if err := os.MkdirAll(filepath.Join(d.root, cleanDir), 0o755); err != nil {
		return model.StoredFile{}, fmt.Errorf("create directory: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(originalName))
	rel := filepath.ToSlash(filepath.Join(cleanDir, uuid.NewString()+ext))

	f, err := os.Create(filepath.Join(d.root, rel))
	if err != nil {
		return model.StoredFile{}, fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	size, err := io.Copy(f, r)
	if err != nil {
		return model.StoredFile{}, fmt.Errorf("write file: %w", err)
	}

	mime, err := mimetype.DetectFile(f.Name())
	if err != nil {
		return model.StoredFile{}, fmt.Errorf("detect mime type: %w", err)
	}

	return model.StoredFile{Path: rel, Size: size, MimeType: mime.String()}, nil
}

// Open opens a stored file by the path Put returned.
func (d *Disk) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	full := filepath.Join(d.root, filepath.Clean("/" + path)[1:])
	f, err := os.Open(full)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	return f, nil
}
