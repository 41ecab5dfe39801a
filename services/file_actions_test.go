package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRecordFiles_SaveStaysInsideUserDir(t *testing.T) {
	files, err := NewRecordFiles(t.TempDir())
	require.NoError(t, err)

	path, err := files.Save("u1", "../../../etc/report.txt", []byte("ok"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(files.BaseDir, "u1", "report.txt"), path)

	_, err = files.Save("../u2", "report.txt", []byte("x"))
	assert.Error(t, err)

	_, err = files.Save("u1", "run.sh", []byte("x"))
	assert.ErrorIs(t, err, ErrUnsupportedFile)

	require.NoError(t, files.Remove("u1", "report.txt"))
	require.NoError(t, files.Remove("u1", "report.txt"))
}

func TestRecordFiles_Owner(t *testing.T) {
	files, err := NewRecordFiles(t.TempDir())
	require.NoError(t, err)

	user, name, ok := files.Owner(filepath.Join(files.BaseDir, "u1", "a.md"))
	require.True(t, ok)
	assert.Equal(t, "u1", user)
	assert.Equal(t, "a.md", name)

	_, _, ok = files.Owner(filepath.Join(files.BaseDir, "a.md"))
	assert.False(t, ok)
	_, _, ok = files.Owner(filepath.Join(files.BaseDir, "u1", "nested", "a.md"))
	assert.False(t, ok)
}

func TestRecordInbox_ScanAndIndex(t *testing.T) {
	files, err := NewRecordFiles(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, os.MkdirAll(files.UserDir("u1"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(files.UserDir("u1"), "visit.md"), []byte("Follow-up in 2 weeks"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(files.UserDir("u1"), "photo.jpg"), []byte("binary"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(files.BaseDir, "stray.txt"), []byte("no owner"), 0o644))

	svc, index := newRecordFixture(t, &stubAI{}, files)
	inbox := NewRecordInbox(svc, files, zap.NewNop())

	inbox.ScanAndIndex(context.Background())
	require.Len(t, index.chunks, 1)
	assert.Equal(t, "visit.md", index.chunks[0].Filename)
	assert.Equal(t, "u1", index.chunks[0].UserID)

	// A second scan finds nothing new.
	inbox.ScanAndIndex(context.Background())
	assert.Equal(t, 1, index.adds)
}

func TestExtractText(t *testing.T) {
	text, err := ExtractText("notes.MD", []byte("# Allergies\npenicillin"))
	require.NoError(t, err)
	assert.Contains(t, text, "penicillin")

	_, err = ExtractText("x.docx", []byte("x"))
	assert.ErrorIs(t, err, ErrUnsupportedFile)
}
