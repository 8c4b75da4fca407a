package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/halcyon-labs/recall/core"
)

// Key prefixes for different data types
const (
	documentRecordPrefix = "docrec"
	chunkRecordPrefix    = "chkrec"
	jobRecordPrefix      = "jobrec"
	jobStatusPrefix      = "jobstat"
	jobDocumentPrefix    = "jobdoc"
	jobIDSeq             = "jobrecseq"
)

// makeDocumentKey generates a key for a document projection by ID.
func makeDocumentKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", documentRecordPrefix, id))
}

// makeChunkKey generates a composite key for a chunk.
// Format: prefix:documentID:index (BigEndian, so iteration yields index order)
func makeChunkKey(documentID core.ID, index int) []byte {
	prefix := chunkRecordPrefix + ":"
	buf := make([]byte, len(prefix)+16)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(documentID))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(index))
	return buf
}

// makeChunkDocumentPrefix generates the key prefix covering all chunks of a
// document.
func makeChunkDocumentPrefix(documentID core.ID) []byte {
	prefix := chunkRecordPrefix + ":"
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(documentID))
	return buf
}

// makeJobKey generates a key for an embedding job by ID.
func makeJobKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", jobRecordPrefix, id))
}

// makeJobStatusKey generates a composite key for the status index.
// Format: prefix:status:jobID (BigEndian, so Pending scans yield jobs in
// creation order — job IDs come from a sequence)
func makeJobStatusKey(status core.JobStatus, id core.ID) []byte {
	prefix := jobStatusPrefix + ":"
	buf := make([]byte, len(prefix)+16)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(status))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeJobStatusPrefix generates the key prefix covering all jobs in a status.
func makeJobStatusPrefix(status core.JobStatus) []byte {
	prefix := jobStatusPrefix + ":"
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(status))
	return buf
}

// makeJobDocumentKey generates a composite key for the per-document job index.
// Format: prefix:documentID:jobID
func makeJobDocumentKey(documentID, jobID core.ID) []byte {
	prefix := jobDocumentPrefix + ":"
	buf := make([]byte, len(prefix)+16)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(documentID))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(jobID))
	return buf
}

// makeJobDocumentPrefix generates the key prefix covering all job index
// entries for a document.
func makeJobDocumentPrefix(documentID core.ID) []byte {
	prefix := jobDocumentPrefix + ":"
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(documentID))
	return buf
}
