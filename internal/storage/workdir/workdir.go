// Package workdir tracks the remote working directories produced by
// calculation processes and removes them once a run no longer needs them.
package workdir

import (
	"context"
	"errors"
	"strings"
)

// ErrFolderNotFound is returned when a remote folder has no objects left,
// usually because an earlier cleanup pass already removed it.
var ErrFolderNotFound = errors.New("remote folder not found")

// Folder locates one calculation working directory in object storage.
type Folder struct {
	Bucket string `json:"bucket"`
	Prefix string `json:"prefix"`
}

func (f Folder) Validate() error {
	if strings.TrimSpace(f.Bucket) == "" {
		return errors.New("bucket is required")
	}
	if strings.TrimSpace(f.Prefix) == "" {
		return errors.New("prefix is required")
	}
	return nil
}

// Store removes remote working directories.
type Store interface {
	Clean(ctx context.Context, folder Folder) error
}
