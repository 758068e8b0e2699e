package store

import (
	"context"
	"runtime"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// VectorIndex holds all chunk vectors in memory and answers similarity
// queries with a brute-force dot-product scan. Deliberately not an ANN
// structure: for corpora under ~10k chunks a parallel scan is fast enough,
// and exact. That corpus size is the scaling boundary of this design.
//
// Durability comes from the document store; the index is a mirror warmed
// via Load at startup and kept current by Upsert/Delete.
type VectorIndex struct {
	mu    sync.RWMutex
	byDoc map[string][]vecEntry
	dims  int
}

type vecEntry struct {
	ordinal int
	text    string
	vector  []float32
}

// NewVectorIndex creates an empty index for vectors of the given width.
func NewVectorIndex(dims int) *VectorIndex {
	return &VectorIndex{
		byDoc: make(map[string][]vecEntry),
		dims:  dims,
	}
}

// Load warms the index from the persistent store.
func (v *VectorIndex) Load(ctx context.Context, docs DocumentStore) error {
	chunks, err := docs.AllChunks(ctx)
	if err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	v.byDoc = make(map[string][]vecEntry, len(chunks)/4+1)
	for _, c := range chunks {
		v.byDoc[c.DocID] = append(v.byDoc[c.DocID], vecEntry{
			ordinal: c.Ordinal,
			text:    c.Text,
			vector:  c.Vector,
		})
	}
	return nil
}

// UpsertChunks replaces the document's chunk vectors.
func (v *VectorIndex) UpsertChunks(docID string, chunks []Chunk) {
	entries := make([]vecEntry, len(chunks))
	for i, c := range chunks {
		entries[i] = vecEntry{ordinal: c.Ordinal, text: c.Text, vector: c.Vector}
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if len(entries) == 0 {
		delete(v.byDoc, docID)
		return
	}
	v.byDoc[docID] = entries
}

// DeleteDocument removes all chunk vectors for the document.
func (v *VectorIndex) DeleteDocument(docID string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.byDoc, docID)
}

// Size returns the number of stored chunk vectors.
func (v *VectorIndex) Size() int {
	v.mu.RLock()
	defer v.mu.RUnlock()

	var n int
	for _, entries := range v.byDoc {
		n += len(entries)
	}
	return n
}

// docScore is one document's best-scoring chunk.
type docScore struct {
	docID string
	score float32
	text  string
}

// Search scans all vectors against the query, keeps hits at or above
// minScore, deduplicates to the best chunk per document, and returns the
// top topK in descending score order. Both sides are unit-normalized, so
// score is a plain dot product.
func (v *VectorIndex) Search(ctx context.Context, query []float32, topK int, minScore float32) ([]SearchResult, error) {
	if topK <= 0 || len(query) == 0 {
		return nil, nil
	}

	// Snapshot doc ids under the read lock; entries are append-only per
	// doc, replaced wholesale on upsert, so holding the lock across the
	// scan keeps the scan consistent.
	v.mu.RLock()
	defer v.mu.RUnlock()

	docIDs := make([]string, 0, len(v.byDoc))
	for id := range v.byDoc {
		docIDs = append(docIDs, id)
	}
	if len(docIDs) == 0 {
		return nil, nil
	}

	// The scan dominates query cost; shard it across documents.
	shards := runtime.NumCPU()
	if shards > len(docIDs) {
		shards = len(docIDs)
	}

	results := make([][]docScore, shards)
	g, _ := errgroup.WithContext(ctx)

	for shard := 0; shard < shards; shard++ {
		shard := shard
		g.Go(func() error {
			var local []docScore
			for i := shard; i < len(docIDs); i += shards {
				id := docIDs[i]

				best := docScore{docID: id, score: minScore - 1}
				for _, e := range v.byDoc[id] {
					score := dot(query, e.vector)
					if score > best.score {
						best.score = score
						best.text = e.text
					}
				}
				if best.score >= minScore {
					local = append(local, best)
				}
			}
			results[shard] = local
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var merged []docScore
	for _, local := range results {
		merged = append(merged, local...)
	}

	sort.Slice(merged, func(i, j int) bool {
		if merged[i].score != merged[j].score {
			return merged[i].score > merged[j].score
		}
		return merged[i].docID < merged[j].docID
	})
	if len(merged) > topK {
		merged = merged[:topK]
	}

	out := make([]SearchResult, len(merged))
	for i, d := range merged {
		out[i] = SearchResult{
			DocID:   d.docID,
			Score:   d.score,
			Snippet: d.text,
			Match:   MatchSemantic,
		}
	}
	return out, nil
}

// dot computes the dot product over the shorter of the two vectors.
func dot(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float32
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
