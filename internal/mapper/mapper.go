// Package mapper turns a source directory tree into import jobs, creating a
// destination Dataset for every directory when importing into a Project.
//
// Datasets are kept flat under the Project. A nested directory's dataset is
// named after the chain of directories leading to it:
//
//	<root>/exp1            → exp1
//	<root>/exp1/sub1       → exp1_sub1
//	<root>/exp1/sub1/raw   → exp1_sub1_raw
//
// Files placed directly in the root go into a dataset named after the
// workstation namespace.
package mapper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/mrlokans/remote-import/internal/entities"
	"github.com/mrlokans/remote-import/internal/remote"
)

// ErrMapping wraps every failure that prevents a complete job list.
var ErrMapping = errors.New("mapping source tree failed")

// ContainerStore is the part of remote.Store the mapper needs.
type ContainerStore interface {
	CreateContainer(ctx context.Context, name string, parentID uint) (uint, error)
	ListChildren(ctx context.Context, containerID uint) ([]remote.ContainerRef, error)
}

// Plan is the ordered job list with the scan depth every job uses.
type Plan struct {
	Jobs  []entities.ImportJob
	Depth int
}

type Mapper struct {
	store        ContainerStore
	separator    string
	datasetDepth int
	logger       *slog.Logger
}

func NewMapper(store ContainerStore, separator string, datasetDepth int, logger *slog.Logger) *Mapper {
	return &Mapper{
		store:        store,
		separator:    separator,
		datasetDepth: datasetDepth,
		logger:       logger,
	}
}

// dirNode is one directory of the scanned tree with the dataset name it maps to.
type dirNode struct {
	path     string
	name     string
	children []*dirNode
}

// Map builds the jobs for root. Dataset targets get a single deep job;
// Project targets get one depth-1 job per directory, parents before children.
func (m *Mapper) Map(ctx context.Context, root string, target entities.ImportTarget, namespace string) (Plan, error) {
	if target.Kind == entities.ContainerKindDataset {
		return Plan{
			Jobs:  []entities.ImportJob{{SourcePath: root, DestinationID: target.ID}},
			Depth: m.datasetDepth,
		}, nil
	}

	tree, err := m.scanTree(root, namespace)
	if err != nil {
		return Plan{}, fmt.Errorf("%w: %w", ErrMapping, err)
	}

	jobs, err := m.materialize(ctx, tree, target.ID)
	if err != nil {
		return Plan{}, fmt.Errorf("%w: %w", ErrMapping, err)
	}
	return Plan{Jobs: jobs, Depth: 1}, nil
}

func (m *Mapper) scanTree(root, namespace string) (*dirNode, error) {
	node := &dirNode{path: root, name: namespace}
	children, err := m.scanChildren(root, "")
	if err != nil {
		return nil, err
	}
	node.children = children
	return node, nil
}

func (m *Mapper) scanChildren(dir, prefix string) ([]*dirNode, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		// DirEntry.IsDir is false for symlinks, so linked directories are skipped.
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	nodes := make([]*dirNode, 0, len(names))
	for _, base := range names {
		name := base
		if prefix != "" {
			name = prefix + m.separator + base
		}
		path := filepath.Join(dir, base)

		children, err := m.scanChildren(path, name)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, &dirNode{path: path, name: name, children: children})
	}
	return nodes, nil
}

func (m *Mapper) materialize(ctx context.Context, tree *dirNode, projectID uint) ([]entities.ImportJob, error) {
	existing, err := m.store.ListChildren(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("list datasets of project %d: %w", projectID, err)
	}
	index := make(map[string]uint, len(existing))
	for _, ref := range existing {
		if _, ok := index[ref.Name]; !ok {
			index[ref.Name] = ref.ID
		}
	}

	var jobs []entities.ImportJob
	var visit func(node *dirNode) error
	visit = func(node *dirNode) error {
		id, ok := index[node.name]
		if ok {
			m.logger.Debug("reusing dataset", "name", node.name, "dataset_id", id)
		} else {
			id, err = m.store.CreateContainer(ctx, node.name, projectID)
			if err != nil {
				return fmt.Errorf("create dataset %q: %w", node.name, err)
			}
			index[node.name] = id
			m.logger.Info("created dataset", "name", node.name, "dataset_id", id, "project_id", projectID)
		}

		jobs = append(jobs, entities.ImportJob{SourcePath: node.path, DestinationID: id})
		for _, child := range node.children {
			if err := visit(child); err != nil {
				return err
			}
		}
		return nil
	}

	if err := visit(tree); err != nil {
		return nil, err
	}
	return jobs, nil
}
