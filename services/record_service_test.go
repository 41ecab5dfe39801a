package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/AnmolGhill/ArogyaAI/models"
)

// memoryIndex is an in-process RecordIndex that returns the caller's chunks
// in insertion order instead of by similarity.
type memoryIndex struct {
	mu     sync.Mutex
	chunks []IndexedChunk
	adds   int
}

func (m *memoryIndex) Add(_ context.Context, chunks []IndexedChunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chunks = append(m.chunks, chunks...)
	m.adds++
	return nil
}

func (m *memoryIndex) DeleteRecord(_ context.Context, recordID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.chunks[:0]
	for _, c := range m.chunks {
		if c.RecordID != recordID {
			kept = append(kept, c)
		}
	}
	m.chunks = kept
	return nil
}

func (m *memoryIndex) ListChunks(_ context.Context, userID string) ([]StoredChunk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []StoredChunk
	for _, c := range m.chunks {
		if c.UserID == userID {
			out = append(out, StoredChunk{ID: c.ID, UserID: c.UserID, RecordID: c.RecordID, Filename: c.Filename, FileHash: c.FileHash})
		}
	}
	return out, nil
}

func (m *memoryIndex) Query(_ context.Context, userID string, _ []float32, n int) ([]models.SourceDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.SourceDocument
	for _, c := range m.chunks {
		if c.UserID != userID {
			continue
		}
		out = append(out, models.SourceDocument{Text: c.Text, Metadata: map[string]interface{}{metaFilename: c.Filename}})
		if len(out) == n {
			break
		}
	}
	return out, nil
}

func (m *memoryIndex) Count(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.chunks), nil
}

type fakeEmbedder struct {
	configured bool
	err        error
	calls      int
}

func (e *fakeEmbedder) Embed(_ context.Context, texts ...string) ([][]float32, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t)), 1}
	}
	return out, nil
}

func (e *fakeEmbedder) Configured() bool { return e.configured }

// gatedEmbedder parks every call until release is closed.
type gatedEmbedder struct {
	arrived chan string
	release chan struct{}
}

func (e *gatedEmbedder) Embed(_ context.Context, texts ...string) ([][]float32, error) {
	e.arrived <- texts[0]
	<-e.release
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{1, 1}
	}
	return out, nil
}

func (e *gatedEmbedder) Configured() bool { return true }

func newRecordFixture(t *testing.T, ai AIClient, files *RecordFiles) (*recordServiceImpl, *memoryIndex) {
	t.Helper()
	index := &memoryIndex{}
	svc := NewRecordService(index, &fakeEmbedder{configured: true}, ai, files, zap.NewNop()).(*recordServiceImpl)
	return svc, index
}

func TestRecordService_Disabled(t *testing.T) {
	ctx := context.Background()
	for _, svc := range []RecordService{
		NewRecordService(nil, &fakeEmbedder{configured: true}, &stubAI{}, nil, zap.NewNop()),
		NewRecordService(&memoryIndex{}, &fakeEmbedder{configured: false}, &stubAI{}, nil, zap.NewNop()),
	} {
		assert.False(t, svc.Enabled())
		_, err := svc.Upload(ctx, "u1", "a.txt", []byte("x"))
		assert.ErrorIs(t, err, ErrRecordsDisabled)
		_, err = svc.List(ctx, "u1")
		assert.ErrorIs(t, err, ErrRecordsDisabled)
		_, err = svc.Ask(ctx, "u1", "q", "en")
		assert.ErrorIs(t, err, ErrRecordsDisabled)
		assert.ErrorIs(t, svc.Delete(ctx, "u1", "r"), ErrRecordsDisabled)
	}
}

func TestRecordService_UploadChunksAndLists(t *testing.T) {
	ctx := context.Background()
	svc, index := newRecordFixture(t, &stubAI{}, nil)

	text := strings.Repeat("Blood pressure 120/80 recorded at clinic visit. ", 60)
	rec, err := svc.Upload(ctx, "u1", "../../bp-log.txt", []byte(text))
	require.NoError(t, err)
	assert.Equal(t, "bp-log.txt", rec.Filename)
	assert.Equal(t, RecordID("u1", "bp-log.txt"), rec.ID)
	assert.Greater(t, rec.Chunks, 1)

	for i, c := range index.chunks {
		assert.Equal(t, i, c.ChunkNum)
		assert.LessOrEqual(t, len([]rune(c.Text)), recordChunkSize)
		assert.Equal(t, "u1", c.UserID)
	}

	// Uploading the same name again replaces the chunks.
	_, err = svc.Upload(ctx, "u1", "bp-log.txt", []byte("short note"))
	require.NoError(t, err)
	_, err = svc.Upload(ctx, "u2", "other.md", []byte("# other user"))
	require.NoError(t, err)

	list, err := svc.List(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, 1, list.Records[0].Chunks)
}

func TestRecordService_UploadsOfDifferentRecordsOverlap(t *testing.T) {
	ctx := context.Background()
	embedder := &gatedEmbedder{arrived: make(chan string, 4), release: make(chan struct{})}
	index := &memoryIndex{}
	svc := NewRecordService(index, embedder, &stubAI{}, nil, zap.NewNop())

	upload := func(user, name, text string, wg *sync.WaitGroup) {
		defer wg.Done()
		_, err := svc.Upload(ctx, user, name, []byte(text))
		assert.NoError(t, err)
	}
	waitArrival := func() string {
		select {
		case text := <-embedder.arrived:
			return text
		case <-time.After(2 * time.Second):
			t.Fatal("embedder was never reached")
			return ""
		}
	}

	var wg sync.WaitGroup
	wg.Add(3)
	go upload("u1", "a.txt", "first record", &wg)
	go upload("u2", "b.txt", "second record", &wg)

	// Both records are being embedded at once.
	got := []string{waitArrival(), waitArrival()}
	assert.ElementsMatch(t, []string{"first record", "second record"}, got)

	// The same record waits for the upload in flight.
	go upload("u1", "a.txt", "first record again", &wg)
	select {
	case text := <-embedder.arrived:
		t.Fatalf("same record embedded concurrently: %q", text)
	case <-time.After(100 * time.Millisecond):
	}

	close(embedder.release)
	assert.Equal(t, "first record again", waitArrival())
	wg.Wait()

	list, err := svc.List(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, 1, list.Count)
	assert.Empty(t, svc.(*recordServiceImpl).locks.held)
}

func TestRecordService_UploadRejects(t *testing.T) {
	ctx := context.Background()
	svc, _ := newRecordFixture(t, &stubAI{}, nil)

	_, err := svc.Upload(ctx, "u1", "scan.png", []byte("x"))
	assert.ErrorIs(t, err, ErrUnsupportedFile)

	_, err = svc.Upload(ctx, "u1", "empty.txt", []byte("  \n "))
	assert.ErrorIs(t, err, ErrNoRecordText)

	_, err = svc.Upload(ctx, "u1", "huge.txt", make([]byte, MaxRecordSize+1))
	assert.ErrorIs(t, err, ErrFileTooLarge)
}

func TestRecordService_Delete(t *testing.T) {
	ctx := context.Background()
	files, err := NewRecordFiles(t.TempDir())
	require.NoError(t, err)
	svc, index := newRecordFixture(t, &stubAI{}, files)

	rec, err := svc.Upload(ctx, "u1", "labs.txt", []byte("HbA1c 5.6"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(files.UserDir("u1"), "labs.txt"))
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, "u2", rec.ID), ErrRecordNotFound)

	require.NoError(t, svc.Delete(ctx, "u1", rec.ID))
	assert.Empty(t, index.chunks)
	_, err = os.Stat(filepath.Join(files.UserDir("u1"), "labs.txt"))
	assert.True(t, os.IsNotExist(err))

	assert.ErrorIs(t, svc.Delete(ctx, "u1", rec.ID), ErrRecordNotFound)
}

func TestRecordService_IndexFileSkipsUnchanged(t *testing.T) {
	ctx := context.Background()
	svc, index := newRecordFixture(t, &stubAI{}, nil)

	changed, err := svc.IndexFile(ctx, "u1", "notes.md", []byte("fasting sugar 92"))
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = svc.IndexFile(ctx, "u1", "notes.md", []byte("fasting sugar 92"))
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, 1, index.adds)

	changed, err = svc.IndexFile(ctx, "u1", "notes.md", []byte("fasting sugar 110"))
	require.NoError(t, err)
	assert.True(t, changed)

	require.NoError(t, svc.RemoveFile(ctx, "u1", "notes.md"))
	assert.Empty(t, index.chunks)
}

func TestRecordService_Ask(t *testing.T) {
	ctx := context.Background()
	ai := &stubAI{result: Success("<p>Your HbA1c was 5.6.</p>")}
	svc, _ := newRecordFixture(t, ai, nil)

	_, err := svc.Ask(ctx, "u1", "What was my HbA1c?", "en")
	assert.ErrorIs(t, err, ErrNoRecords)
	assert.Empty(t, ai.prompts)

	_, err = svc.Upload(ctx, "u1", "labs.txt", []byte("HbA1c 5.6 on 2024-11-02"))
	require.NoError(t, err)

	_, err = svc.Ask(ctx, "u1", "   ", "en")
	assert.ErrorIs(t, err, ErrEmptyQuestion)

	resp, err := svc.Ask(ctx, "u1", "What was my HbA1c?", "hi")
	require.NoError(t, err)
	assert.Equal(t, "<p>Your HbA1c was 5.6.</p>", resp.Answer)
	require.Len(t, resp.SourceDocs, 1)

	require.Len(t, ai.prompts, 1)
	assert.Contains(t, ai.prompts[0], "HbA1c 5.6 on 2024-11-02")
	assert.Contains(t, ai.prompts[0], "labs.txt")
	assert.Contains(t, ai.prompts[0], "Respond only in Hindi")
}

func TestRecordService_AskFailureMapping(t *testing.T) {
	ctx := context.Background()
	ai := &stubAI{}
	svc, _ := newRecordFixture(t, ai, nil)
	_, err := svc.Upload(ctx, "u1", "labs.txt", []byte("TSH 2.1"))
	require.NoError(t, err)

	ai.result = QuotaExceeded("429")
	_, err = svc.Ask(ctx, "u1", "TSH?", "en")
	assert.ErrorIs(t, err, ErrQuotaExceeded)

	ai.result = OtherFailure("boom")
	_, err = svc.Ask(ctx, "u1", "TSH?", "en")
	assert.ErrorIs(t, err, ErrAnswerUnavailable)
}

func TestRecordService_EmbedError(t *testing.T) {
	index := &memoryIndex{}
	svc := NewRecordService(index, &fakeEmbedder{configured: true, err: errors.New("embed down")}, &stubAI{}, nil, zap.NewNop())

	_, err := svc.Upload(context.Background(), "u1", "a.txt", []byte("text"))
	require.Error(t, err)
	assert.Empty(t, index.chunks)
}
