// Package driver defines the blob storage abstraction backing the message
// store. Implementations live in the local and sftp subpackages.
package driver

import "context"

type StorageDriver interface {
	Name() string
	GetContent(ctx context.Context, path string) ([]byte, error)
	PutContent(ctx context.Context, path string, content []byte) error
	List(ctx context.Context, path string) ([]string, error)
	Delete(ctx context.Context, path string) error
}
