// Package milvus backs the VectorIndex interface with a Milvus collection.
// The collection is created lazily on the first insert, once the embedding
// dimension is known; per-document scoping uses a doc_id field and
// expression filters.
package milvus

import (
	"context"
	"fmt"
	"sync"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"github.com/kusumaprabha/UltraShip/models"
)

// Collection schema fields.
const (
	fieldChunkID = "chunk_id"
	fieldDocID   = "doc_id"
	fieldVector  = "vector"
)

// DefaultCollection is the collection chunk vectors live in.
const DefaultCollection = "ultraship_chunks"

// Ensure Index implements the interface.
var _ models.VectorIndex = (*Index)(nil)

// Index is the Milvus-backed vector index.
type Index struct {
	client         client.Client
	collectionName string

	mu    sync.Mutex
	dim   int
	ready bool
}

// New connects to Milvus at addr.
func New(ctx context.Context, addr, collectionName string) (*Index, error) {
	if collectionName == "" {
		collectionName = DefaultCollection
	}
	c, err := client.NewClient(ctx, client.Config{Address: addr})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to milvus: %w", err)
	}
	return &Index{client: c, collectionName: collectionName}, nil
}

// ensureCollection creates and loads the collection on first use. The first
// inserted vector fixes the dimension.
func (ix *Index) ensureCollection(ctx context.Context, dim int) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.ready {
		if dim != ix.dim {
			return fmt.Errorf("vector dimension %d does not match collection dimension %d", dim, ix.dim)
		}
		return nil
	}

	exists, err := ix.client.HasCollection(ctx, ix.collectionName)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if !exists {
		schema := &entity.Schema{
			CollectionName: ix.collectionName,
			Description:    "Document chunk vectors",
			Fields: []*entity.Field{
				{
					Name:       fieldChunkID,
					DataType:   entity.FieldTypeVarChar,
					PrimaryKey: true,
					AutoID:     false,
					TypeParams: map[string]string{"max_length": "128"},
				},
				{
					Name:       fieldDocID,
					DataType:   entity.FieldTypeVarChar,
					TypeParams: map[string]string{"max_length": "128"},
				},
				{
					Name:       fieldVector,
					DataType:   entity.FieldTypeFloatVector,
					TypeParams: map[string]string{"dim": fmt.Sprintf("%d", dim)},
				},
			},
		}
		if err := ix.client.CreateCollection(ctx, schema, 1); err != nil {
			return fmt.Errorf("failed to create collection: %w", err)
		}

		idx, err := entity.NewIndexHNSW(entity.L2, 16, 200)
		if err != nil {
			return fmt.Errorf("failed to build index definition: %w", err)
		}
		if err := ix.client.CreateIndex(ctx, ix.collectionName, fieldVector, idx, false); err != nil {
			return fmt.Errorf("failed to create vector index: %w", err)
		}
	}
	if err := ix.client.LoadCollection(ctx, ix.collectionName, false); err != nil {
		return fmt.Errorf("failed to load collection: %w", err)
	}

	ix.dim = dim
	ix.ready = true
	return nil
}

// Insert registers one chunk vector, tagged with its document id.
func (ix *Index) Insert(ctx context.Context, docID, chunkID string, vector []float32) error {
	if err := ix.ensureCollection(ctx, len(vector)); err != nil {
		return err
	}
	columns := []entity.Column{
		entity.NewColumnVarChar(fieldChunkID, []string{chunkID}),
		entity.NewColumnVarChar(fieldDocID, []string{docID}),
		entity.NewColumnFloatVector(fieldVector, len(vector), [][]float32{vector}),
	}
	if _, err := ix.client.Insert(ctx, ix.collectionName, "", columns...); err != nil {
		return fmt.Errorf("failed to insert chunk %s: %w", chunkID, err)
	}
	return nil
}

// Search runs a filtered top-k query over one document's vectors. Milvus
// reports L2 distances as scores; they are converted to [0,1] similarities
// as 1/(1+d).
func (ix *Index) Search(ctx context.Context, docID string, vector []float32, k int) ([]models.VectorHit, error) {
	ix.mu.Lock()
	ready := ix.ready
	ix.mu.Unlock()
	if !ready {
		return nil, nil
	}

	sp, err := entity.NewIndexHNSWSearchParam(100)
	if err != nil {
		return nil, fmt.Errorf("failed to build search parameters: %w", err)
	}
	filter := fmt.Sprintf("%s == %q", fieldDocID, docID)
	results, err := ix.client.Search(
		ctx,
		ix.collectionName,
		[]string{},
		filter,
		[]string{fieldChunkID},
		[]entity.Vector{entity.FloatVector(vector)},
		fieldVector,
		entity.L2,
		k,
		sp,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search milvus: %w", err)
	}
	if len(results) == 0 || results[0].ResultCount == 0 {
		return nil, nil
	}

	result := results[0]
	ids, ok := result.IDs.(*entity.ColumnVarChar)
	if !ok {
		return nil, fmt.Errorf("unexpected id column type %T", result.IDs)
	}
	hits := make([]models.VectorHit, 0, result.ResultCount)
	for i := 0; i < result.ResultCount && i < len(result.Scores); i++ {
		hits = append(hits, models.VectorHit{
			ChunkID:    ids.Data()[i],
			Similarity: 1 / (1 + float64(result.Scores[i])),
		})
	}
	return hits, nil
}

// RemoveByDoc deletes every vector tagged with docID.
func (ix *Index) RemoveByDoc(ctx context.Context, docID string) error {
	ix.mu.Lock()
	ready := ix.ready
	ix.mu.Unlock()
	if !ready {
		return nil
	}
	expr := fmt.Sprintf("%s == %q", fieldDocID, docID)
	if err := ix.client.Delete(ctx, ix.collectionName, "", expr); err != nil {
		return fmt.Errorf("failed to delete chunks of %s: %w", docID, err)
	}
	return nil
}

// Close releases the underlying client.
func (ix *Index) Close() error {
	return ix.client.Close()
}
