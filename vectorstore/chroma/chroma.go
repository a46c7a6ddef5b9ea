// Package chroma backs the VectorIndex interface with a ChromaDB
// collection. Chunk vectors carry the owning document id as metadata, so
// per-document search and removal are metadata filters.
package chroma

import (
	"context"
	"fmt"

	chromago "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/amikos-tech/chroma-go/pkg/embeddings"

	"github.com/kusumaprabha/UltraShip/models"
)

// DefaultCollection is the collection chunk vectors live in.
const DefaultCollection = "ultraship-chunks"

// Ensure Index implements the interface.
var _ models.VectorIndex = (*Index)(nil)

// Index is the Chroma-backed vector index.
type Index struct {
	client     chromago.Client
	collection chromago.Collection
}

// New connects to Chroma at url and gets or creates the collection.
func New(url, collectionName string) (*Index, error) {
	if collectionName == "" {
		collectionName = DefaultCollection
	}
	var clientOpts []chromago.ClientOption
	if url != "" {
		clientOpts = append(clientOpts, chromago.WithBaseURL(url))
	}
	client, err := chromago.NewHTTPClient(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create chroma client: %w", err)
	}

	collection, err := client.GetOrCreateCollection(
		context.Background(),
		collectionName,
		chromago.WithCollectionMetadataCreate(
			chromago.NewMetadata(
				chromago.NewStringAttribute("description", "document chunk vectors"),
			),
		),
	)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to get or create collection %q: %w", collectionName, err)
	}
	return &Index{client: client, collection: collection}, nil
}

// Insert registers one chunk vector, tagged with its document id.
func (ix *Index) Insert(ctx context.Context, docID, chunkID string, vector []float32) error {
	err := ix.collection.Add(ctx,
		chromago.WithIDs(chromago.DocumentID(chunkID)),
		chromago.WithEmbeddings(embeddings.NewEmbeddingFromFloat32(vector)),
		chromago.WithMetadatas(chromago.NewDocumentMetadata(
			chromago.NewStringAttribute("doc_id", docID),
		)),
	)
	if err != nil {
		return fmt.Errorf("failed to add chunk %s to chroma: %w", chunkID, err)
	}
	return nil
}

// Search runs a filtered top-k query over one document's vectors. Chroma
// reports L2 distances; they are converted to [0,1] similarities as
// 1/(1+d).
func (ix *Index) Search(ctx context.Context, docID string, vector []float32, k int) ([]models.VectorHit, error) {
	results, err := ix.collection.Query(ctx,
		chromago.WithQueryEmbeddings(embeddings.NewEmbeddingFromFloat32(vector)),
		chromago.WithNResults(k),
		chromago.WithWhereQuery(chromago.EqString("doc_id", docID)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query chroma: %w", err)
	}

	idGroups := results.GetIDGroups()
	distanceGroups := results.GetDistancesGroups()
	if len(idGroups) == 0 {
		return nil, nil
	}

	hits := make([]models.VectorHit, 0, len(idGroups[0]))
	for i, id := range idGroups[0] {
		similarity := 0.0
		if len(distanceGroups) > 0 && i < len(distanceGroups[0]) {
			similarity = 1 / (1 + float64(distanceGroups[0][i]))
		}
		hits = append(hits, models.VectorHit{
			ChunkID:    string(id),
			Similarity: similarity,
		})
	}
	return hits, nil
}

// RemoveByDoc deletes every vector tagged with docID.
func (ix *Index) RemoveByDoc(ctx context.Context, docID string) error {
	err := ix.collection.Delete(ctx,
		chromago.WithWhereDelete(chromago.EqString("doc_id", docID)),
	)
	if err != nil {
		return fmt.Errorf("failed to delete chunks of %s from chroma: %w", docID, err)
	}
	return nil
}

// Close releases the underlying client.
func (ix *Index) Close() error {
	return ix.client.Close()
}
