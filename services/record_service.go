package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/textsplitter"
	"go.uber.org/zap"

	"github.com/AnmolGhill/ArogyaAI/logger"
	"github.com/AnmolGhill/ArogyaAI/models"
)

const (
	MaxRecordSize = 10 << 20

	recordChunkSize    = 1000
	recordChunkOverlap = 100
	recordTopK         = 3
	embedBatchSize     = 100
)

var recordNamespace = uuid.MustParse("6f1b7c1e-8a43-4c55-9d1e-2b0f3c7a9e41")

// RecordID is stable for a (user, filename) pair so re-uploading or editing a
// file replaces its chunks instead of duplicating them.
func RecordID(userID, filename string) string {
	return uuid.NewSHA1(recordNamespace, []byte(userID+"/"+filepath.Base(filename))).String()
}

// Embedder turns text into vectors for the record index.
type Embedder interface {
	Embed(ctx context.Context, texts ...string) ([][]float32, error)
	Configured() bool
}

// RecordService stores medical documents per user and answers questions over
// them.
type RecordService interface {
	Enabled() bool
	Upload(ctx context.Context, userID, filename string, data []byte) (*models.Record, error)
	List(ctx context.Context, userID string) (*models.ListRecordsResponse, error)
	Delete(ctx context.Context, userID, recordID string) error
	Ask(ctx context.Context, userID, question, language string) (*models.AskRecordsResponse, error)

	// IndexFile and RemoveFile are driven by the inbox watcher.
	IndexFile(ctx context.Context, userID, filename string, data []byte) (bool, error)
	RemoveFile(ctx context.Context, userID, filename string) error
}

type recordServiceImpl struct {
	index    RecordIndex
	embedder Embedder
	ai       AIClient
	files    *RecordFiles
	splitter textsplitter.RecursiveCharacter
	logger   *zap.Logger

	// locks serializes delete-then-add per record so an upload and the
	// watcher never interleave on the same one.
	locks recordLocks
}

// NewRecordService wires the feature. A nil index or an unconfigured embedder
// disables it. files may be nil, in which case uploads are not kept on disk.
func NewRecordService(index RecordIndex, embedder Embedder, ai AIClient, files *RecordFiles, logger *zap.Logger) RecordService {
	return &recordServiceImpl{
		index:    index,
		embedder: embedder,
		ai:       ai,
		files:    files,
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(recordChunkSize),
			textsplitter.WithChunkOverlap(recordChunkOverlap),
		),
		logger: logger.Named("records"),
	}
}

func (s *recordServiceImpl) Enabled() bool {
	return s.index != nil && s.embedder != nil && s.embedder.Configured()
}

func (s *recordServiceImpl) Upload(ctx context.Context, userID, filename string, data []byte) (*models.Record, error) {
	if !s.Enabled() {
		return nil, ErrRecordsDisabled
	}
	filename = filepath.Base(filename)
	if !isSupportedRecord(filename) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, filepath.Ext(filename))
	}
	if len(data) > MaxRecordSize {
		return nil, ErrFileTooLarge
	}

	text, err := ExtractText(filename, data)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.lock(RecordID(userID, filename))
	chunks, err := s.indexText(ctx, userID, filename, fileHash(data), text)
	unlock()
	if err != nil {
		return nil, err
	}

	// Written after indexing so the watcher sees an up-to-date hash and skips.
	if s.files != nil {
		if _, err := s.files.Save(userID, filename, data); err != nil {
			s.logger.Warn("could not keep uploaded record on disk", zap.String("filename", filename), zap.Error(err))
		}
	}

	s.logger.Info("record uploaded",
		zap.String("user_id", userID),
		zap.String("filename", filename),
		zap.Int("chunks", chunks),
	)
	return &models.Record{ID: RecordID(userID, filename), Filename: filename, Chunks: chunks}, nil
}

// IndexFile (re)indexes a file found in the inbox. It reports false when the
// stored chunks already match the file's content hash.
func (s *recordServiceImpl) IndexFile(ctx context.Context, userID, filename string, data []byte) (bool, error) {
	if !s.Enabled() {
		return false, ErrRecordsDisabled
	}
	if len(data) > MaxRecordSize {
		return false, ErrFileTooLarge
	}

	hash := fileHash(data)
	recordID := RecordID(userID, filename)
	defer s.locks.lock(recordID)()

	existing, err := s.index.ListChunks(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, c := range existing {
		if c.RecordID == recordID && c.FileHash == hash {
			return false, nil
		}
	}

	text, err := ExtractText(filename, data)
	if err != nil {
		return false, err
	}
	if _, err := s.indexText(ctx, userID, filename, hash, text); err != nil {
		return false, err
	}
	return true, nil
}

func (s *recordServiceImpl) RemoveFile(ctx context.Context, userID, filename string) error {
	if !s.Enabled() {
		return ErrRecordsDisabled
	}
	recordID := RecordID(userID, filename)
	defer s.locks.lock(recordID)()
	return s.index.DeleteRecord(ctx, recordID)
}

// indexText replaces all chunks of the record. Callers hold its lock.
func (s *recordServiceImpl) indexText(ctx context.Context, userID, filename, hash, text string) (int, error) {
	if strings.TrimSpace(text) == "" {
		return 0, ErrNoRecordText
	}

	pieces, err := s.splitter.SplitText(text)
	if err != nil {
		return 0, fmt.Errorf("split record text: %w", err)
	}
	if len(pieces) == 0 {
		return 0, ErrNoRecordText
	}

	vectors := make([][]float32, 0, len(pieces))
	for start := 0; start < len(pieces); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(pieces) {
			end = len(pieces)
		}
		batch, err := s.embedder.Embed(ctx, pieces[start:end]...)
		if err != nil {
			return 0, fmt.Errorf("embed chunks of %s: %w", filename, err)
		}
		vectors = append(vectors, batch...)
	}

	recordID := RecordID(userID, filename)
	chunks := make([]IndexedChunk, len(pieces))
	for i, piece := range pieces {
		chunks[i] = IndexedChunk{
			ID:        fmt.Sprintf("%s-chunk%d", recordID, i),
			UserID:    userID,
			RecordID:  recordID,
			Filename:  filename,
			FileHash:  hash,
			ChunkNum:  i,
			Text:      piece,
			Embedding: vectors[i],
		}
	}

	if err := s.index.DeleteRecord(ctx, recordID); err != nil {
		return 0, fmt.Errorf("delete old chunks of %s: %w", filename, err)
	}
	if err := s.index.Add(ctx, chunks); err != nil {
		return 0, err
	}
	s.logger.Debug("record indexed", zap.String("filename", filename), zap.Int("chunks", len(chunks)))
	return len(chunks), nil
}

func (s *recordServiceImpl) List(ctx context.Context, userID string) (*models.ListRecordsResponse, error) {
	if !s.Enabled() {
		return nil, ErrRecordsDisabled
	}
	chunks, err := s.index.ListChunks(ctx, userID)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*models.Record)
	for _, c := range chunks {
		rec, ok := byID[c.RecordID]
		if !ok {
			rec = &models.Record{ID: c.RecordID, Filename: c.Filename}
			byID[c.RecordID] = rec
		}
		rec.Chunks++
	}

	records := make([]models.Record, 0, len(byID))
	for _, rec := range byID {
		records = append(records, *rec)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Filename < records[j].Filename })

	return &models.ListRecordsResponse{Count: len(records), Records: records}, nil
}

func (s *recordServiceImpl) Delete(ctx context.Context, userID, recordID string) error {
	if !s.Enabled() {
		return ErrRecordsDisabled
	}

	defer s.locks.lock(recordID)()

	chunks, err := s.index.ListChunks(ctx, userID)
	if err != nil {
		return err
	}
	var filename string
	for _, c := range chunks {
		if c.RecordID == recordID {
			filename = c.Filename
			break
		}
	}
	if filename == "" {
		return ErrRecordNotFound
	}

	if err := s.index.DeleteRecord(ctx, recordID); err != nil {
		return fmt.Errorf("delete record chunks: %w", err)
	}
	if s.files != nil {
		if err := s.files.Remove(userID, filename); err != nil {
			s.logger.Warn("could not remove record file", zap.String("filename", filename), zap.Error(err))
		}
	}
	s.logger.Info("record deleted", zap.String("user_id", userID), zap.String("record_id", recordID))
	return nil
}

// Ask retrieves the nearest chunks of the caller's own records and sends one
// prompt through the AI adapter.
func (s *recordServiceImpl) Ask(ctx context.Context, userID, question, language string) (*models.AskRecordsResponse, error) {
	if !s.Enabled() {
		return nil, ErrRecordsDisabled
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	vectors, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embed question: got %d vectors", len(vectors))
	}

	docs, err := s.index.Query(ctx, userID, vectors[0], recordTopK)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, ErrNoRecords
	}

	s.logger.Info("answering record question",
		zap.String("user_id", userID),
		zap.String("question", logger.Truncate(question, 50)),
		zap.Int("sources", len(docs)),
	)

	result := s.ai.Generate(ctx, BuildRecordQuestionPrompt(question, LanguageName(language), docs))
	switch result.Kind {
	case OutcomeSuccess:
		return &models.AskRecordsResponse{Answer: result.Text, SourceDocs: docs}, nil
	case OutcomeQuotaExceeded:
		s.logger.Warn("ai quota exceeded", zap.String("detail", result.Message))
		return nil, ErrQuotaExceeded
	default:
		s.logger.Error("record answer failed",
			zap.String("outcome", result.Kind.String()),
			zap.String("detail", result.Message),
		)
		return nil, ErrAnswerUnavailable
	}
}

// BuildRecordQuestionPrompt grounds the question in the retrieved excerpts.
func BuildRecordQuestionPrompt(question, language string, docs []models.SourceDocument) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "You are a medical assistant. Respond only in %s.\n", language)
	sb.WriteString("Answer the user's question using only the excerpts from their own medical records below. ")
	sb.WriteString("If the excerpts do not contain the answer, say so plainly. Do not invent values.\n\n")

	for i, doc := range docs {
		source, _ := doc.Metadata[metaFilename].(string)
		if source == "" {
			source = "record"
		}
		fmt.Fprintf(&sb, "Excerpt %d (%s):\n%s\n\n", i+1, source, doc.Text)
	}

	fmt.Fprintf(&sb, "Question: \"%s\"\n", question)
	fmt.Fprintf(&sb, "Respond only in %s with simple HTML (<p>, <ul>, <li>, <b>).\n", language)
	return sb.String()
}

func fileHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// recordLocks hands out one mutex per record ID. Entries are dropped once no
// caller holds or waits on them.
type recordLocks struct {
	mu   sync.Mutex
	held map[string]*recordLock
}

type recordLock struct {
	mu   sync.Mutex
	refs int
}

// lock blocks until recordID is free and returns its unlock func.
func (l *recordLocks) lock(recordID string) func() {
	l.mu.Lock()
	if l.held == nil {
		l.held = make(map[string]*recordLock)
	}
	rl, ok := l.held[recordID]
	if !ok {
		rl = &recordLock{}
		l.held[recordID] = rl
	}
	rl.refs++
	l.mu.Unlock()

	rl.mu.Lock()
	return func() {
		rl.mu.Unlock()
		l.mu.Lock()
		rl.refs--
		if rl.refs == 0 {
			delete(l.held, recordID)
		}
		l.mu.Unlock()
	}
}
