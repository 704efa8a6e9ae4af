package pyboot

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/klauspost/compress/flate"
	"github.com/vmihailenco/msgpack/v5"
)

// tocEntryWire is the on-disk, msgpack-encoded representation of a
// TOCEntry record (SPEC_FULL.md §3). It exists because the real archive
// codec is an external collaborator (spec.md §1): this repository still
// needs *a* concrete, testable encoding to drive the Archive Client and
// Runtime Options Parser against.
type tocEntryWire struct {
	Type            uint8  `msgpack:"t"`
	Name            string `msgpack:"n"`
	UncompressedLen uint32 `msgpack:"u"`
	CompressedLen   uint32 `msgpack:"c"`
	Offset          uint32 `msgpack:"o"`
	Compression     uint8  `msgpack:"z"`
}

func (w tocEntryWire) toEntry() TOCEntry {
	return TOCEntry{
		Type:            EntryType(w.Type),
		Name:            w.Name,
		UncompressedLen: w.UncompressedLen,
		CompressedLen:   w.CompressedLen,
		Offset:          w.Offset,
		Compression:     CompressionKind(w.Compression),
	}
}

func fromEntry(e TOCEntry) tocEntryWire {
	return tocEntryWire{
		Type:            uint8(e.Type),
		Name:            e.Name,
		UncompressedLen: e.UncompressedLen,
		CompressedLen:   e.CompressedLen,
		Offset:          e.Offset,
		Compression:     uint8(e.Compression),
	}
}

func decodeTOCEntryWire(buf []byte) (tocEntryWire, error) {
	var w tocEntryWire
	if err := msgpack.Unmarshal(buf, &w); err != nil {
		return tocEntryWire{}, err
	}
	return w, nil
}

// inflate decompresses a raw DEFLATE stream to exactly wantLen bytes.
func inflate(compressed []byte, wantLen uint32) ([]byte, error) {
	fr := flate.NewReader(bytes.NewReader(compressed))
	defer fr.Close()
	out := make([]byte, wantLen)
	if _, err := io.ReadFull(fr, out); err != nil {
		return nil, err
	}
	return out, nil
}

// deflate compresses data with DEFLATE, for use by buildArchive below.
func deflate(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	fw, err := flate.NewWriter(&buf, flate.BestSpeed)
	if err != nil {
		return nil, err
	}
	if _, err := fw.Write(data); err != nil {
		return nil, err
	}
	if err := fw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// buildArchiveEntry is one input to buildArchive: an entry's metadata plus
// its raw (pre-compression) payload.
type buildArchiveEntry struct {
	Type        EntryType
	Name        string
	Payload     []byte
	Compression CompressionKind
}

// buildArchive serializes entries into the on-disk TOC+payload format
// readTOC understands, writing the full archive bytes (TOC header,
// records, then concatenated payloads). It is used by tests, not by the
// bootloader's runtime path (which only ever reads archives).
func buildArchive(entries []buildArchiveEntry) ([]byte, error) {
	var toc bytes.Buffer
	toc.Write(tocMagic[:])
	if err := binary.Write(&toc, binary.LittleEndian, uint32(len(entries))); err != nil {
		return nil, err
	}

	var payloads bytes.Buffer
	var offset uint32
	for _, e := range entries {
		payload := e.Payload
		compressedLen := uint32(len(payload))
		if e.Compression == CompressionDeflate {
			compressed, err := deflate(payload)
			if err != nil {
				return nil, err
			}
			payload = compressed
			compressedLen = uint32(len(payload))
		}

		wire := fromEntry(TOCEntry{
			Type:            e.Type,
			Name:            e.Name,
			UncompressedLen: uint32(len(e.Payload)),
			CompressedLen:   compressedLen,
			Offset:          offset,
			Compression:     e.Compression,
		})
		rec, err := msgpack.Marshal(wire)
		if err != nil {
			return nil, err
		}
		if err := binary.Write(&toc, binary.LittleEndian, uint32(len(rec))); err != nil {
			return nil, err
		}
		toc.Write(rec)

		payloads.Write(payload)
		offset += compressedLen
	}

	var out bytes.Buffer
	out.Write(toc.Bytes())
	out.Write(payloads.Bytes())
	return out.Bytes(), nil
}

// embedArchive appends archiveBytes to the content of an executable and
// writes the embedded-footer trailer (magic, pkg_offset, length),
// producing the layout openEmbeddedArchive expects.
func embedArchive(execContent, archiveBytes []byte) ([]byte, error) {
	var out bytes.Buffer
	out.Write(execContent)
	pkgOffset := uint64(out.Len())
	out.Write(archiveBytes)
	out.Write(embeddedFooterMagic[:])
	if err := binary.Write(&out, binary.LittleEndian, pkgOffset); err != nil {
		return nil, err
	}
	if err := binary.Write(&out, binary.LittleEndian, uint64(len(archiveBytes))); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
