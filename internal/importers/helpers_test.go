package importers

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mrlokans/remote-import/internal/entities"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(name), 0o644))
	}
}

// scriptedInvoker returns a canned outcome per path and records every request.
type scriptedInvoker struct {
	mu       sync.Mutex
	outcomes map[string]entities.LogOutcome
	requests []InvokeRequest
}

func (s *scriptedInvoker) Invoke(_ context.Context, req InvokeRequest) entities.LogOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	return s.outcomes[req.Path]
}

type attachCall struct {
	ContainerID uint
	Path        string
	MimeType    string
	Namespace   string
}

type recordingAttacher struct {
	mu    sync.Mutex
	calls []attachCall
	err   error
}

func (r *recordingAttacher) AttachFile(_ context.Context, containerID uint, localPath, mimeType, namespace string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.calls = append(r.calls, attachCall{containerID, localPath, mimeType, namespace})
	return nil
}
