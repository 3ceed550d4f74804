package badger

import (
	"encoding/binary"

	"github.com/fitloom/fitloom/core"
)

// Key prefix for index entries. The remaining 8 bytes are the BLAKE2b key of
// the product id in BigEndian order, which gives a stable iteration order
// for export scans.
const entryPrefix = "catent:"

// makeEntryKey generates the storage key for an entry id.
func makeEntryKey(id core.ID) []byte {
	prefixBytes := []byte(entryPrefix)
	buf := make([]byte, len(prefixBytes)+8)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], id.Key())
	return buf
}
