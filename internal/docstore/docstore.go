// Package docstore provides the content-addressed blob store the
// verification workflow uploads supporting documents to.
//
// The retrieval key is derived from the content hash, so a stored blob is
// immutable: putting the same bytes twice yields the same hash, and a hash
// can never resolve to different bytes.
package docstore

import (
	"context"
	"encoding/hex"

	"golang.org/x/crypto/sha3"
)

// Store is the port consumed by the workflow engine. Implementations must
// guarantee durability before Put returns; a failed Put leaves no record.
type Store interface {
	Put(ctx context.Context, content []byte) (string, error)
	Get(ctx context.Context, contentHash string) ([]byte, error)
}

// HashContent computes the content address for a blob: lowercase hex of its
// SHA3-256 digest. All implementations key by this value.
func HashContent(content []byte) string {
	sum := sha3.Sum256(content)
	return hex.EncodeToString(sum[:])
}
