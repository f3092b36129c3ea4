package entities

import (
	"fmt"
	"strings"
	"time"
)

// ContainerKind is the type of a hierarchical grouping object in the repository.
type ContainerKind string

const (
	ContainerKindProject ContainerKind = "Project"
	ContainerKindDataset ContainerKind = "Dataset"
)

// ParseContainerKind accepts "project" or "dataset" in any case.
func ParseContainerKind(s string) (ContainerKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "project":
		return ContainerKindProject, nil
	case "dataset":
		return ContainerKindDataset, nil
	default:
		return "", fmt.Errorf("unknown container kind %q (expected Project or Dataset)", s)
	}
}

// Container is a Project or Dataset. Datasets created by the importer are
// direct children of the target Project.
type Container struct {
	ID        uint          `gorm:"primaryKey" json:"id"`
	Kind      ContainerKind `gorm:"size:20;index" json:"kind"`
	Name      string        `gorm:"size:500;index" json:"name"`
	ParentID  *uint         `gorm:"index" json:"parent_id,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

func (Container) TableName() string {
	return "containers"
}

// Attachment is a generic file linked to a container.
type Attachment struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ContainerID uint      `gorm:"index" json:"container_id"`
	FileName    string    `gorm:"size:500" json:"file_name"`
	SourcePath  string    `gorm:"type:text" json:"source_path"`
	BlobPath    string    `gorm:"type:text" json:"-"`
	MimeType    string    `gorm:"size:100" json:"mime_type"`
	Namespace   string    `gorm:"size:200;index" json:"namespace"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Attachment) TableName() string {
	return "attachments"
}
