package badger

import (
	"encoding/binary"
	"time"

	"github.com/poiesic/docman/core"
)

// Key prefixes for different data types
const (
	documentPrefix       = "doc:"
	documentDatePrefix   = "docd:"
	documentAuthorPrefix = "doca:"
	documentIDSeq        = "docseq"
)

// timeKeyLen is the width of an encoded timestamp: sign-flipped Unix
// seconds followed by nanoseconds, both big-endian.
const timeKeyLen = 12

// encodeTime maps a timestamp to bytes that sort in time order over the
// whole time.Time range, including instants before 1970.
func encodeTime(ts time.Time) []byte {
	buf := make([]byte, timeKeyLen)
	binary.BigEndian.PutUint64(buf, uint64(ts.Unix())^(1<<63))
	binary.BigEndian.PutUint32(buf[8:], uint32(ts.Nanosecond()))
	return buf
}

// makeDocumentKey generates the primary key for a document.
func makeDocumentKey(id string) []byte {
	return []byte(documentPrefix + id)
}

// makeDocumentDateKey generates a composite key for the creation-time index.
// Format: prefix:timestamp:id
func makeDocumentDateKey(created time.Time, id string) []byte {
	buf := makePartialDocumentDateKey(created)
	return append(buf, id...)
}

// makePartialDocumentDateKey generates a partial key for date range queries.
// Format: prefix:timestamp
func makePartialDocumentDateKey(created time.Time) []byte {
	buf := make([]byte, 0, len(documentDatePrefix)+timeKeyLen+16)
	buf = append(buf, documentDatePrefix...)
	return append(buf, encodeTime(created)...)
}

// dateFromDateKey extracts the encoded timestamp from a date index key.
func dateFromDateKey(key []byte) []byte {
	return key[len(documentDatePrefix) : len(documentDatePrefix)+timeKeyLen]
}

// makeDocumentAuthorKey generates a composite key for the author index.
// Format: prefix:hash(authorID):id
func makeDocumentAuthorKey(authorID, id string) []byte {
	buf := makePartialDocumentAuthorKey(authorID)
	return append(buf, id...)
}

// makePartialDocumentAuthorKey generates a partial key for author queries.
// Format: prefix:hash(authorID)
func makePartialDocumentAuthorKey(authorID string) []byte {
	buf := make([]byte, len(documentAuthorPrefix)+8, len(documentAuthorPrefix)+8+16)
	offset := copy(buf, documentAuthorPrefix)
	binary.BigEndian.PutUint64(buf[offset:], core.HashKey(authorID))
	return buf
}
