package mapper

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/remote-import/internal/database/containers"
	"github.com/mrlokans/remote-import/internal/entities"
	"github.com/mrlokans/remote-import/internal/remote"
)

// countingStore wraps the catalogue and counts calls.
type countingStore struct {
	*containers.Repository
	creates   int
	lists     int
	createErr error
}

func (c *countingStore) CreateContainer(ctx context.Context, name string, parentID uint) (uint, error) {
	c.creates++
	if c.createErr != nil {
		return 0, c.createErr
	}
	return c.Repository.CreateContainer(ctx, name, parentID)
}

func (c *countingStore) ListChildren(ctx context.Context, containerID uint) ([]remote.ContainerRef, error) {
	c.lists++
	return c.Repository.ListChildren(ctx, containerID)
}

func setupStore(t *testing.T) (*countingStore, *entities.Container) {
	t.Helper()
	dir := t.TempDir()

	db, err := gorm.Open(sqlite.Open(filepath.Join(dir, "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entities.Container{}, &entities.Attachment{}))
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	repo := containers.NewRepository(db, filepath.Join(dir, "blobs"))
	project, err := repo.CreateProject(context.Background(), "P")
	require.NoError(t, err)
	return &countingStore{Repository: repo}, project
}

func makeTree(t *testing.T, paths ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, p := range paths {
		full := filepath.Join(root, p)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte("x"), 0o644))
	}
	return root
}

func newTestMapper(store ContainerStore) *Mapper {
	return NewMapper(store, "_", 10, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func projectTarget(p *entities.Container) entities.ImportTarget {
	return entities.ImportTarget{ID: p.ID, Kind: entities.ContainerKindProject, Handle: p}
}

func childNames(t *testing.T, store *countingStore, projectID uint) map[string]uint {
	t.Helper()
	refs, err := store.Repository.ListChildren(context.Background(), projectID)
	require.NoError(t, err)
	names := make(map[string]uint, len(refs))
	for _, r := range refs {
		_, dup := names[r.Name]
		assert.False(t, dup, "duplicate dataset %q", r.Name)
		names[r.Name] = r.ID
	}
	return names
}

func TestMapper_Map_ProjectNestedDirectories(t *testing.T) {
	ctx := context.Background()
	store, project := setupStore(t)
	root := makeTree(t, "top.tif", "exp1/sub1/a.tif", "exp1/sub1/b.tif")

	plan, err := newTestMapper(store).Map(ctx, root, projectTarget(project), "cn-imaris")
	require.NoError(t, err)

	names := childNames(t, store, project.ID)
	require.Len(t, names, 3)
	assert.Contains(t, names, "cn-imaris")
	assert.Contains(t, names, "exp1")
	assert.Contains(t, names, "exp1_sub1")

	assert.Equal(t, 1, plan.Depth)
	assert.Equal(t, []entities.ImportJob{
		{SourcePath: root, DestinationID: names["cn-imaris"]},
		{SourcePath: filepath.Join(root, "exp1"), DestinationID: names["exp1"]},
		{SourcePath: filepath.Join(root, "exp1", "sub1"), DestinationID: names["exp1_sub1"]},
	}, plan.Jobs)
	assert.Equal(t, 1, store.lists)
}

func TestMapper_Map_Idempotent(t *testing.T) {
	ctx := context.Background()
	store, project := setupStore(t)
	root := makeTree(t, "a/x.tif", "a/b/y.tif", "c/z.tif")
	m := newTestMapper(store)

	first, err := m.Map(ctx, root, projectTarget(project), "ws")
	require.NoError(t, err)
	createsAfterFirst := store.creates

	second, err := m.Map(ctx, root, projectTarget(project), "ws")
	require.NoError(t, err)

	assert.Equal(t, first.Jobs, second.Jobs)
	assert.Equal(t, createsAfterFirst, store.creates)
	assert.Len(t, childNames(t, store, project.ID), 4)
}

func TestMapper_Map_ReusesPartialPreviousRun(t *testing.T) {
	ctx := context.Background()
	store, project := setupStore(t)
	root := makeTree(t, "exp1/sub1/a.tif")

	existingID, err := store.Repository.CreateContainer(ctx, "exp1", project.ID)
	require.NoError(t, err)

	plan, err := newTestMapper(store).Map(ctx, root, projectTarget(project), "ws")
	require.NoError(t, err)

	require.Len(t, plan.Jobs, 3)
	assert.Equal(t, existingID, plan.Jobs[1].DestinationID)
	assert.Equal(t, 2, store.creates)
}

func TestMapper_Map_DirectoryWithoutFilesStillGetsJob(t *testing.T) {
	ctx := context.Background()
	store, project := setupStore(t)
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "empty", "deeper"), 0o755))

	plan, err := newTestMapper(store).Map(ctx, root, projectTarget(project), "ws")
	require.NoError(t, err)

	require.Len(t, plan.Jobs, 3)
	assert.Equal(t, filepath.Join(root, "empty", "deeper"), plan.Jobs[2].SourcePath)
}

func TestMapper_Map_SkipsSymlinkedDirectories(t *testing.T) {
	ctx := context.Background()
	store, project := setupStore(t)
	root := makeTree(t, "real/a.tif")
	require.NoError(t, os.Symlink(filepath.Join(root, "real"), filepath.Join(root, "link")))

	plan, err := newTestMapper(store).Map(ctx, root, projectTarget(project), "ws")
	require.NoError(t, err)

	assert.Len(t, plan.Jobs, 2)
	assert.NotContains(t, childNames(t, store, project.ID), "link")
}

func TestMapper_Map_DatasetTarget(t *testing.T) {
	store, _ := setupStore(t)
	root := makeTree(t, "a/b/c.tif")

	plan, err := newTestMapper(store).Map(context.Background(), root,
		entities.ImportTarget{ID: 77, Kind: entities.ContainerKindDataset}, "ws")
	require.NoError(t, err)

	assert.Equal(t, 10, plan.Depth)
	assert.Equal(t, []entities.ImportJob{{SourcePath: root, DestinationID: 77}}, plan.Jobs)
	assert.Zero(t, store.creates)
	assert.Zero(t, store.lists)
}

func TestMapper_Map_CustomSeparator(t *testing.T) {
	store, project := setupStore(t)
	root := makeTree(t, "exp1/sub1/a.tif")

	m := NewMapper(store, "__", 10, slog.New(slog.NewTextHandler(io.Discard, nil)))
	_, err := m.Map(context.Background(), root, projectTarget(project), "ws")
	require.NoError(t, err)

	assert.Contains(t, childNames(t, store, project.ID), "exp1__sub1")
}

func TestMapper_Map_StoreErrorAborts(t *testing.T) {
	store, project := setupStore(t)
	store.createErr = errors.New("connection lost")
	root := makeTree(t, "a/x.tif")

	_, err := newTestMapper(store).Map(context.Background(), root, projectTarget(project), "ws")

	assert.ErrorIs(t, err, ErrMapping)
	assert.Equal(t, 1, store.creates)
}

func TestMapper_Map_MissingRoot(t *testing.T) {
	store, project := setupStore(t)

	_, err := newTestMapper(store).Map(context.Background(), filepath.Join(t.TempDir(), "gone"), projectTarget(project), "ws")

	assert.ErrorIs(t, err, ErrMapping)
	assert.Zero(t, store.creates)
}
