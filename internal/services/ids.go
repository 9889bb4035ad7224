package services

import (
	"encoding/hex"
	"strconv"

	"github.com/google/uuid"
)

// newOpaqueID returns 16 random bytes projected as lowercase hex. Transaction
// and line ids must not leak creation order, so no sequence is involved.
func newOpaqueID() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])
}

// tombstoneKey renders an integer dimension id for the sync_deletion table.
// Opaque ids are already hex and pass through unchanged.
func tombstoneKey(id int64) string {
	return strconv.FormatInt(id, 10)
}
