package blobstore

import (
	"context"

	"github.com/sasha-s/go-deadlock"

	"orgmachine/orgmachine"
)

// Placeholders for fields that can't be resolved right now.
const (
	PlaceholderDescription = "No description available"
	PlaceholderIndexing    = "Indexing..."
)

// Resolver serves indexed fields first and falls back to the blob store only
// when the indexed field is absent. A blob is fetched at most once per
// (entity id, handle) pair for the resolver's lifetime; the inverse bloom
// filter remembers failed attempts so a dead handle is not hammered.
type Resolver struct {
	client    Client
	mutex     *deadlock.Mutex
	parsed    map[string]map[string]interface{}
	images    map[string][]byte
	attempted func(message interface{}) bool
}

func NewResolver(client Client) *Resolver {
	return &Resolver{
		client:    client,
		mutex:     &deadlock.Mutex{},
		parsed:    make(map[string]map[string]interface{}),
		images:    make(map[string][]byte),
		attempted: orgmachine.MakeNewInverseBloomFilter(10000),
	}
}

// Field resolves field F of an entity: the indexed value if populated, else
// the blob's JSON field, else the placeholder. Never returns an error.
func (r *Resolver) Field(ctx context.Context, entityID string, indexed string, handle orgmachine.BlobHandle, field string, placeholder string) string {
	if indexed != "" {
		return indexed
	}
	doc := r.document(ctx, entityID, handle)
	if doc == nil {
		return placeholder
	}
	if v, ok := doc[field]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return placeholder
}

// Image resolves an image blob to its decoded bytes; the UI turns them into
// an object URL. Returns nil when the handle cannot be resolved.
func (r *Resolver) Image(ctx context.Context, entityID string, handle orgmachine.BlobHandle) []byte {
	if !Fetchable(handle) {
		return nil
	}
	key := entityID + "|" + handle
	r.mutex.Lock()
	if img, ok := r.images[key]; ok {
		r.mutex.Unlock()
		return img
	}
	r.mutex.Unlock()
	if !r.attempted(key + "|img") {
		return nil
	}
	b := r.client.Fetch(ctx, handle)
	if b == nil {
		return nil
	}
	r.mutex.Lock()
	r.images[key] = b
	r.mutex.Unlock()
	return b
}

func (r *Resolver) document(ctx context.Context, entityID string, handle orgmachine.BlobHandle) map[string]interface{} {
	if !Fetchable(handle) {
		return nil
	}
	key := entityID + "|" + handle
	r.mutex.Lock()
	if doc, ok := r.parsed[key]; ok {
		r.mutex.Unlock()
		return doc
	}
	r.mutex.Unlock()
	// first sighting of this pair gets one fetch; repeats are served from
	// cache or fall straight to the placeholder
	if !r.attempted(key) {
		return nil
	}
	b := r.client.Fetch(ctx, handle)
	if b == nil {
		return nil
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(b, &doc); err != nil {
		orgmachine.LogCLI("blob "+handle+" is not JSON", 3)
		return nil
	}
	r.mutex.Lock()
	r.parsed[key] = doc
	r.mutex.Unlock()
	return doc
}
