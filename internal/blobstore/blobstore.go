// Package blobstore abstracts object storage for receipts and product
// images. The production deployment pointed at a hosted bucket; this repo
// ships a local-disk implementation whose objects the server exposes over
// HTTP, which is all the rest of the code can tell apart.
package blobstore

import (
	"context"
	"io"
)

// ObjectStore persists a binary object at a path like "receipts/ORD-1.pdf"
// or "products/hive-tool.jpg" and returns a retrievable URL for it.
type ObjectStore interface {
	Put(ctx context.Context, path string, contentType string, r io.Reader) (url string, err error)
	Open(ctx context.Context, path string) (io.ReadCloser, error)
}
