package taskboard

import (
	"context"

	"orgmachine/blobstore"
)

// Describe fills a task's readable fields for the modal body. A freshly
// created task often has an empty indexed description but a valid metadata
// handle; the resolver falls back to the blob in that case and to the
// placeholder when even that fails.
func Describe(ctx context.Context, resolver *blobstore.Resolver, task Task) (title, description string) {
	title = resolver.Field(ctx, task.ID, task.Title, task.MetadataHandle, "title", blobstore.PlaceholderIndexing)
	description = resolver.Field(ctx, task.ID, task.Description, task.MetadataHandle, "description", blobstore.PlaceholderDescription)
	return title, description
}
