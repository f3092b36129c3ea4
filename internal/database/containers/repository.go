// Package containers provides the Project/Dataset catalogue of the managed
// repository, including file attachments.
//
// # Usage
//
//	repo := containers.NewRepository(db, "./attachments")
//	project, err := repo.CreateProject(ctx, "Microscopy 2024")
//	datasetID, err := repo.CreateContainer(ctx, "exp1", project.ID)
package containers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mrlokans/remote-import/internal/entities"
	"github.com/mrlokans/remote-import/internal/remote"
)

var _ remote.Store = (*Repository)(nil)

// Repository handles container and attachment database operations.
type Repository struct {
	db      *gorm.DB
	blobDir string
}

// NewRepository creates a repository storing attachment content under blobDir.
func NewRepository(db *gorm.DB, blobDir string) *Repository {
	return &Repository{db: db, blobDir: blobDir}
}

// CreateProject creates a root Project container.
func (r *Repository) CreateProject(ctx context.Context, name string) (*entities.Container, error) {
	project := &entities.Container{Kind: entities.ContainerKindProject, Name: name}
	if err := r.db.WithContext(ctx).Create(project).Error; err != nil {
		return nil, fmt.Errorf("create project %q: %w", name, err)
	}
	return project, nil
}

func (r *Repository) Resolve(ctx context.Context, kind entities.ContainerKind, id uint) (*entities.Container, error) {
	container, err := r.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if container.Kind != kind {
		return nil, fmt.Errorf("%w: container %d is a %s, not a %s", remote.ErrKindMismatch, id, container.Kind, kind)
	}
	return container, nil
}

func (r *Repository) CreateContainer(ctx context.Context, name string, parentID uint) (uint, error) {
	parent, err := r.get(ctx, parentID)
	if err != nil {
		return 0, err
	}
	if parent.Kind != entities.ContainerKindProject {
		return 0, fmt.Errorf("%w: datasets can only be created under a project, %d is a %s",
			remote.ErrKindMismatch, parentID, parent.Kind)
	}

	dataset := &entities.Container{
		Kind:     entities.ContainerKindDataset,
		Name:     name,
		ParentID: &parentID,
	}
	if err := r.db.WithContext(ctx).Create(dataset).Error; err != nil {
		return 0, fmt.Errorf("create dataset %q: %w", name, err)
	}
	return dataset.ID, nil
}

func (r *Repository) ListChildren(ctx context.Context, containerID uint) ([]remote.ContainerRef, error) {
	var children []entities.Container
	err := r.db.WithContext(ctx).
		Where("parent_id = ?", containerID).
		Order("id ASC").
		Find(&children).Error
	if err != nil {
		return nil, fmt.Errorf("list children of %d: %w", containerID, err)
	}

	refs := make([]remote.ContainerRef, 0, len(children))
	for _, c := range children {
		refs = append(refs, remote.ContainerRef{Name: c.Name, ID: c.ID})
	}
	return refs, nil
}

func (r *Repository) Parent(ctx context.Context, containerID uint) (*entities.Container, error) {
	container, err := r.get(ctx, containerID)
	if err != nil {
		return nil, err
	}
	if container.ParentID == nil {
		return nil, fmt.Errorf("%w: container %d has no parent", remote.ErrNotFound, containerID)
	}
	return r.get(ctx, *container.ParentID)
}

// AttachFile copies the file into the blob directory and records it.
func (r *Repository) AttachFile(ctx context.Context, containerID uint, localPath, mimeType, namespace string) error {
	if _, err := r.get(ctx, containerID); err != nil {
		return err
	}

	blobPath, size, err := r.storeBlob(localPath)
	if err != nil {
		return err
	}

	attachment := &entities.Attachment{
		ContainerID: containerID,
		FileName:    filepath.Base(localPath),
		SourcePath:  localPath,
		BlobPath:    blobPath,
		MimeType:    mimeType,
		Namespace:   namespace,
		Size:        size,
	}
	if err := r.db.WithContext(ctx).Create(attachment).Error; err != nil {
		_ = os.Remove(blobPath)
		return fmt.Errorf("record attachment %s: %w", localPath, err)
	}
	return nil
}

// Attachments returns the attachments of a container, oldest first.
func (r *Repository) Attachments(ctx context.Context, containerID uint) ([]entities.Attachment, error) {
	var attachments []entities.Attachment
	err := r.db.WithContext(ctx).
		Where("container_id = ?", containerID).
		Order("id ASC").
		Find(&attachments).Error
	return attachments, err
}

// KeepAlive pings the catalogue connection.
func (r *Repository) KeepAlive(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *Repository) get(ctx context.Context, id uint) (*entities.Container, error) {
	var container entities.Container
	err := r.db.WithContext(ctx).First(&container, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: id %d", remote.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get container %d: %w", id, err)
	}
	return &container, nil
}

func (r *Repository) storeBlob(localPath string) (string, int64, error) {
	src, err := os.Open(localPath)
	if err != nil {
		return "", 0, fmt.Errorf("open attachment source: %w", err)
	}
	defer src.Close()

	if err := os.MkdirAll(r.blobDir, 0o755); err != nil {
		return "", 0, fmt.Errorf("create blob directory: %w", err)
	}

	blobPath := filepath.Join(r.blobDir, uuid.New().String()+filepath.Ext(localPath))
	dst, err := os.Create(blobPath)
	if err != nil {
		return "", 0, fmt.Errorf("create blob: %w", err)
	}

	size, err := io.Copy(dst, src)
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(blobPath)
		return "", 0, fmt.Errorf("copy attachment content: %w", err)
	}
	return blobPath, size, nil
}
