package mirror

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func setupDirs(t *testing.T) (remote, local, history string) {
	base := t.TempDir()
	remote = filepath.Join(base, "remote")
	local = filepath.Join(base, "in")
	for _, d := range []string{remote, local} {
		require.NoError(t, os.MkdirAll(d, 0o755))
	}
	history = filepath.Join(base, "remote_copied_files.txt")
	return
}

func TestMirror_BacklogCopiesUnseenFiles(t *testing.T) {
	remote, local, history := setupDirs(t)
	require.NoError(t, os.WriteFile(filepath.Join(remote, "a.xml"), []byte("<Root/>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(remote, "b.xml"), []byte("<Root/>"), 0o644))

	triggered := 0
	m, err := New(remote, local, history, time.Minute, func() { triggered++ }, nil)
	require.NoError(t, err)

	m.poll()

	require.FileExists(t, filepath.Join(local, "a.xml"))
	require.FileExists(t, filepath.Join(local, "b.xml"))
	require.Equal(t, 1, triggered)

	b, err := os.ReadFile(history)
	require.NoError(t, err)
	require.Contains(t, string(b), "a.xml")
	require.Contains(t, string(b), "b.xml")
}

func TestMirror_RestartSkipsFilesInHistory(t *testing.T) {
	remote, local, history := setupDirs(t)
	require.NoError(t, os.WriteFile(filepath.Join(remote, "a.xml"), []byte("<Root/>"), 0o644))
	require.NoError(t, os.WriteFile(history, []byte("a.xml\n"), 0o644))

	triggered := 0
	m, err := New(remote, local, history, time.Minute, func() { triggered++ }, nil)
	require.NoError(t, err)

	m.poll()

	_, err = os.Stat(filepath.Join(local, "a.xml"))
	require.True(t, os.IsNotExist(err))
	require.Equal(t, 0, triggered)
}

func TestMirror_SeedsFromLocalDirsAfterHistoryLoss(t *testing.T) {
	remote, local, history := setupDirs(t)
	require.NoError(t, os.WriteFile(filepath.Join(remote, "a.xml"), []byte("<Root/>"), 0o644))

	imported := filepath.Join(filepath.Dir(local), "imported")
	require.NoError(t, os.MkdirAll(imported, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(imported, "a.xml"), []byte("<Root/>"), 0o644))

	m, err := New(remote, local, history, time.Minute, nil, nil)
	require.NoError(t, err)

	m.poll()

	_, err = os.Stat(filepath.Join(local, "a.xml"))
	require.True(t, os.IsNotExist(err))
}

func TestMirror_PollIntervalFloorsAt30Seconds(t *testing.T) {
	remote, local, history := setupDirs(t)
	m, err := New(remote, local, history, 5*time.Second, nil, nil)
	require.NoError(t, err)
	require.Equal(t, minPollInterval, m.PollInterval)
}
