// Package remote defines the object API of the managed repository that
// imports are written into.
package remote

import (
	"context"
	"errors"

	"github.com/mrlokans/remote-import/internal/entities"
)

// ErrNotFound indicates the requested container does not exist.
var ErrNotFound = errors.New("container not found")

// ErrKindMismatch indicates the container exists but is of a different kind.
var ErrKindMismatch = errors.New("container kind mismatch")

// ContainerRef is the name and ID of a child container.
type ContainerRef struct {
	Name string
	ID   uint
}

// Store is the repository's object API.
//
// Implementations:
//   - containers.Repository (internal/database/containers) - gorm/sqlite catalogue
type Store interface {
	// Resolve returns the container with the given kind and ID.
	Resolve(ctx context.Context, kind entities.ContainerKind, id uint) (*entities.Container, error)

	// CreateContainer creates a Dataset named name under parentID.
	// It does not check for an existing child with the same name.
	CreateContainer(ctx context.Context, name string, parentID uint) (uint, error)

	// ListChildren returns the direct children of containerID.
	ListChildren(ctx context.Context, containerID uint) ([]ContainerRef, error)

	// Parent returns the parent of containerID, or ErrNotFound for a root.
	Parent(ctx context.Context, containerID uint) (*entities.Container, error)

	// AttachFile links the local file as a generic attachment of containerID.
	AttachFile(ctx context.Context, containerID uint, localPath, mimeType, namespace string) error

	// KeepAlive signals that the session is still in use.
	KeepAlive(ctx context.Context) error
}
