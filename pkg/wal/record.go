// Package wal implements the engine's redo-only write-ahead log: page
// images are appended before the pages they describe are ever written to
// the data file, and a transaction's commit record is forced to disk
// before commit returns to the caller.
package wal

import (
	"encoding/binary"
	"hash/crc32"

	"github.com/zaddach/kuzu/dberrors"
)

// LSN is a log sequence number: the byte offset of a record within the log
// file.
type LSN uint64

// Kind distinguishes the five record types the recovery algorithm expects.
type Kind uint8

const (
	KindPageUpdate Kind = iota
	KindCommit
	KindCheckpointBegin
	KindCheckpointEnd
	KindCatalogUpdate
)

func (k Kind) String() string {
	switch k {
	case KindPageUpdate:
		return "PAGE_UPDATE"
	case KindCommit:
		return "COMMIT"
	case KindCheckpointBegin:
		return "CHECKPOINT_BEGIN"
	case KindCheckpointEnd:
		return "CHECKPOINT_END"
	case KindCatalogUpdate:
		return "CATALOG_UPDATE"
	default:
		return "UNKNOWN"
	}
}

// Record is one entry in the log. Body holds the after-image for
// PAGE_UPDATE/CATALOG_UPDATE records, and is empty for the others.
//
// Wire format (all integers big-endian):
//
//	[4]  totalLen      (excludes itself)
//	[1]  kind
//	[8]  txnID
//	[4]  fileID         (0 = WAL-internal record)
//	[4]  pageIdx         (NullIdx when not applicable)
//	[4]  len(Body)
//	[..] Body
//	[4]  crc32(kind..Body)
type Record struct {
	Kind    Kind
	TxnID   uint64
	FileID  uint32
	PageIdx uint32
	Body    []byte
}

const headerFixedSize = 1 + 8 + 4 + 4 + 4 // kind + txnID + fileID + pageIdx + bodyLen
const lengthPrefixSize = 4
const crcSize = 4

// Encode serializes r into its on-disk representation.
func Encode(r Record) []byte {
	total := headerFixedSize + len(r.Body)
	buf := make([]byte, lengthPrefixSize+total+crcSize)

	binary.BigEndian.PutUint32(buf[0:], uint32(total))
	off := lengthPrefixSize
	buf[off] = byte(r.Kind)
	off++
	binary.BigEndian.PutUint64(buf[off:], r.TxnID)
	off += 8
	binary.BigEndian.PutUint32(buf[off:], r.FileID)
	off += 4
	binary.BigEndian.PutUint32(buf[off:], r.PageIdx)
	off += 4
	binary.BigEndian.PutUint32(buf[off:], uint32(len(r.Body)))
	off += 4
	copy(buf[off:], r.Body)
	off += len(r.Body)

	crc := crc32.ChecksumIEEE(buf[lengthPrefixSize : lengthPrefixSize+total])
	binary.BigEndian.PutUint32(buf[off:], crc)
	return buf
}

// Decode reads one record starting at the beginning of buf, returning the
// record, the number of bytes it occupied, and an error. Decode returns
// dberrors.ErrCorruption if the checksum does not match or buf is
// truncated, which recovery treats as "end of valid log" rather than a
// hard failure, since a crash can leave a partially-written tail record.
func Decode(buf []byte) (Record, int, error) {
	if len(buf) < lengthPrefixSize {
		return Record{}, 0, dberrors.Corruption("truncated record length prefix")
	}
	total := int(binary.BigEndian.Uint32(buf[0:]))
	need := lengthPrefixSize + total + crcSize
	if len(buf) < need {
		return Record{}, 0, dberrors.Corruption("truncated record body")
	}

	body := buf[lengthPrefixSize : lengthPrefixSize+total]
	wantCRC := binary.BigEndian.Uint32(buf[lengthPrefixSize+total:])
	if gotCRC := crc32.ChecksumIEEE(body); gotCRC != wantCRC {
		return Record{}, 0, dberrors.Corruption("CRC mismatch")
	}

	off := 0
	kind := Kind(body[off])
	off++
	txnID := binary.BigEndian.Uint64(body[off:])
	off += 8
	fileID := binary.BigEndian.Uint32(body[off:])
	off += 4
	pageIdx := binary.BigEndian.Uint32(body[off:])
	off += 4
	bodyLen := int(binary.BigEndian.Uint32(body[off:]))
	off += 4
	if off+bodyLen != len(body) {
		return Record{}, 0, dberrors.Corruption("body length mismatch")
	}
	recBody := make([]byte, bodyLen)
	copy(recBody, body[off:])

	return Record{
		Kind:    kind,
		TxnID:   txnID,
		FileID:  fileID,
		PageIdx: pageIdx,
		Body:    recBody,
	}, need, nil
}
