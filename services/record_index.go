package services

import (
	"context"
	"encoding/json"
	"fmt"

	chromago "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/amikos-tech/chroma-go/pkg/embeddings"
	"go.uber.org/zap"

	"github.com/AnmolGhill/ArogyaAI/models"
)

// Chunk metadata keys.
const (
	metaUserID   = "user_id"
	metaRecordID = "record_id"
	metaFilename = "filename"
	metaFileHash = "file_hash"
	metaChunkNum = "chunk_num"
)

// IndexedChunk is one piece of a record ready to be stored.
type IndexedChunk struct {
	ID        string
	UserID    string
	RecordID  string
	Filename  string
	FileHash  string
	ChunkNum  int
	Text      string
	Embedding []float32
}

// StoredChunk is the metadata view of a chunk already in the index.
type StoredChunk struct {
	ID       string
	UserID   string
	RecordID string
	Filename string
	FileHash string
}

// RecordIndex is the vector store behind medical records.
type RecordIndex interface {
	Add(ctx context.Context, chunks []IndexedChunk) error
	DeleteRecord(ctx context.Context, recordID string) error
	ListChunks(ctx context.Context, userID string) ([]StoredChunk, error)
	Query(ctx context.Context, userID string, embedding []float32, n int) ([]models.SourceDocument, error)
	Count(ctx context.Context) (int, error)
}

type chromaRecordIndex struct {
	collection chromago.Collection
	logger     *zap.Logger
}

func NewChromaRecordIndex(collection chromago.Collection, logger *zap.Logger) RecordIndex {
	return &chromaRecordIndex{collection: collection, logger: logger.Named("record_index")}
}

// OpenChromaCollection connects to Chroma and gets or creates the records
// collection.
func OpenChromaCollection(ctx context.Context, baseURL, name string) (chromago.Client, chromago.Collection, error) {
	client, err := chromago.NewHTTPClient(chromago.WithBaseURL(baseURL))
	if err != nil {
		return nil, nil, fmt.Errorf("create chroma client: %w", err)
	}

	collection, err := client.GetOrCreateCollection(
		ctx,
		name,
		chromago.WithCollectionMetadataCreate(
			chromago.NewMetadata(
				chromago.NewStringAttribute("description", "ArogyaAI medical record chunks"),
				chromago.NewStringAttribute("created_by", "record_service"),
			),
		),
	)
	if err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("get or create collection %q: %w", name, err)
	}
	return client, collection, nil
}

func (c *chromaRecordIndex) Add(ctx context.Context, chunks []IndexedChunk) error {
	for _, chunk := range chunks {
		metadata := chromago.NewDocumentMetadata(
			chromago.NewStringAttribute(metaUserID, chunk.UserID),
			chromago.NewStringAttribute(metaRecordID, chunk.RecordID),
			chromago.NewStringAttribute(metaFilename, chunk.Filename),
			chromago.NewStringAttribute(metaFileHash, chunk.FileHash),
			chromago.NewIntAttribute(metaChunkNum, int64(chunk.ChunkNum)),
		)
		err := c.collection.Add(ctx,
			chromago.WithIDs(chromago.DocumentID(chunk.ID)),
			chromago.WithTexts(chunk.Text),
			chromago.WithEmbeddings(embeddings.NewEmbeddingFromFloat32(chunk.Embedding)),
			chromago.WithMetadatas(metadata),
		)
		if err != nil {
			return fmt.Errorf("add chunk %d of %s: %w", chunk.ChunkNum, chunk.Filename, err)
		}
	}
	return nil
}

func (c *chromaRecordIndex) DeleteRecord(ctx context.Context, recordID string) error {
	return c.collection.Delete(ctx, chromago.WithWhereDelete(chromago.EqString(metaRecordID, recordID)))
}

func (c *chromaRecordIndex) ListChunks(ctx context.Context, userID string) ([]StoredChunk, error) {
	results, err := c.collection.Get(ctx, chromago.WithWhereGet(chromago.EqString(metaUserID, userID)))
	if err != nil {
		return nil, fmt.Errorf("get chunks from chromadb: %w", err)
	}

	ids := results.GetIDs()
	metadatas := results.GetMetadatas()
	chunks := make([]StoredChunk, 0, len(ids))
	for i := range ids {
		var meta map[string]interface{}
		if i < len(metadatas) {
			meta = c.metadataToMap(metadatas[i])
		}
		chunk := StoredChunk{ID: string(ids[i])}
		chunk.UserID, _ = meta[metaUserID].(string)
		chunk.RecordID, _ = meta[metaRecordID].(string)
		chunk.Filename, _ = meta[metaFilename].(string)
		chunk.FileHash, _ = meta[metaFileHash].(string)
		if chunk.UserID != userID {
			continue
		}
		chunks = append(chunks, chunk)
	}
	return chunks, nil
}

func (c *chromaRecordIndex) Query(ctx context.Context, userID string, embedding []float32, n int) ([]models.SourceDocument, error) {
	results, err := c.collection.Query(
		ctx,
		chromago.WithQueryEmbeddings(embeddings.NewEmbeddingFromFloat32(embedding)),
		chromago.WithNResults(n),
		chromago.WithWhereQuery(chromago.EqString(metaUserID, userID)),
	)
	if err != nil {
		return nil, fmt.Errorf("query chromadb: %w", err)
	}

	var documents []models.SourceDocument
	documentGroups := results.GetDocumentsGroups()
	metadataGroups := results.GetMetadatasGroups()
	if len(documentGroups) == 0 {
		return documents, nil
	}

	for i, doc := range documentGroups[0] {
		if doc.ContentString() == "" {
			continue
		}
		var meta map[string]interface{}
		if len(metadataGroups) > 0 && i < len(metadataGroups[0]) {
			meta = c.metadataToMap(metadataGroups[0][i])
		}
		documents = append(documents, models.SourceDocument{
			Text:     doc.ContentString(),
			Metadata: meta,
		})
	}
	return documents, nil
}

func (c *chromaRecordIndex) Count(ctx context.Context) (int, error) {
	count, err := c.collection.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	return int(count), nil
}

// metadataToMap round-trips chroma's DocumentMetadata through JSON, which is
// the only public way to read all of its attributes.
func (c *chromaRecordIndex) metadataToMap(metadata chromago.DocumentMetadata) map[string]interface{} {
	out := make(map[string]interface{})
	if metadata == nil {
		return out
	}
	raw, err := json.Marshal(metadata)
	if err != nil {
		c.logger.Warn("could not marshal chunk metadata", zap.Error(err))
		return out
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		c.logger.Warn("could not unmarshal chunk metadata", zap.Error(err))
	}
	return out
}
