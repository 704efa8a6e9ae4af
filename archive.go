package pyboot

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// EntryType is the TOC entry's type code (spec.md §3).
type EntryType uint8

const (
	EntryPyModule      EntryType = iota // a single .py/.pyc module, marshalled
	EntryPyPackage                      // a package's __init__, marshalled
	EntryPYZ                            // the compressed importable module database
	EntryRuntimeOption                  // a bootloader or interpreter runtime option
	EntryData                           // an extractable data file
	EntryBinary                         // an extractable shared library / binary
	EntrySplashResource                 // a resource consumed by the splash subsystem
)

func (t EntryType) String() string {
	switch t {
	case EntryPyModule:
		return "PYMODULE"
	case EntryPyPackage:
		return "PYPACKAGE"
	case EntryPYZ:
		return "PYZ"
	case EntryRuntimeOption:
		return "RUNTIME_OPTION"
	case EntryData:
		return "DATA"
	case EntryBinary:
		return "BINARY"
	case EntrySplashResource:
		return "SPLASH_RESOURCE"
	default:
		return fmt.Sprintf("EntryType(%d)", uint8(t))
	}
}

// Extractable reports whether an entry of this type is written to disk by
// the single-file PARENT codepath (spec.md §4.6). RUNTIME_OPTION entries
// live only in memory; everything else materializes into the app root.
func (t EntryType) Extractable() bool {
	return t != EntryRuntimeOption
}

// CompressionKind identifies how an entry's payload is stored in the
// archive.
type CompressionKind uint8

const (
	CompressionNone CompressionKind = iota
	CompressionDeflate
)

// TOCEntry describes one table-of-contents record: a type code, a UTF-8
// name, the uncompressed payload length, the payload's offset within the
// archive's payload section, and compression metadata (spec.md §3).
type TOCEntry struct {
	Type            EntryType
	Name            string
	UncompressedLen uint32
	CompressedLen   uint32 // equal to UncompressedLen when CompressionNone
	Offset          uint32
	Compression     CompressionKind
}

// Archive is an opened package archive: an owned file handle, the absolute
// offset of the package block within that file (pkg_offset — nonzero for
// an embedded archive, zero for a side-loaded one), and its table of
// contents (spec.md §3, §4.2).
type Archive struct {
	file       *os.File
	path       string
	pkgOffset  int64
	payloadOff int64
	entries    []TOCEntry
}

// Path returns the path to the file backing this archive (the executable
// for an embedded archive, or the sibling .pkg file for a side-loaded one).
func (a *Archive) Path() string { return a.path }

// PkgOffset returns the absolute offset of the package block within the
// backing file. Zero for a side-loaded archive.
func (a *Archive) PkgOffset() int64 { return a.pkgOffset }

// Entries returns the archive's table of contents in on-disk order. The
// returned slice must not be mutated by callers.
func (a *Archive) Entries() []TOCEntry { return a.entries }

// HasExtractableEntries reports whether this archive carries any entry
// that must be materialized to disk, i.e. whether this is single-file
// (onefile) semantics (spec.md §3, "flag indicating ... single-file
// semantics").
func (a *Archive) HasExtractableEntries() bool {
	for _, e := range a.entries {
		if e.Type.Extractable() {
			return true
		}
	}
	return false
}

// Iterator returns a fresh forward cursor over the TOC, positioned before
// the first entry (spec.md §4.2: "a pointer to the first TOC entry, an end
// sentinel, and a next-entry function").
func (a *Archive) Iterator() *TOCIterator {
	return &TOCIterator{entries: a.entries, pos: -1}
}

// TOCIterator is a forward-only cursor over an Archive's table of contents.
type TOCIterator struct {
	entries []TOCEntry
	pos     int
}

// Next advances the cursor and reports whether an entry is available.
func (it *TOCIterator) Next() bool {
	it.pos++
	return it.pos < len(it.entries)
}

// Entry returns the entry at the cursor's current position. Valid only
// after a call to Next that returned true.
func (it *TOCIterator) Entry() *TOCEntry {
	return &it.entries[it.pos]
}

// Extract returns a freshly allocated, decompressed buffer of exactly
// entry.UncompressedLen bytes (spec.md §3, §4.2).
func (a *Archive) Extract(entry *TOCEntry) ([]byte, error) {
	raw := make([]byte, entry.CompressedLen)
	absOff := a.pkgOffset + a.payloadOff + int64(entry.Offset)
	if _, err := a.file.ReadAt(raw, absOff); err != nil {
		return nil, fmt.Errorf("%w: reading entry %q: %v", ErrArchiveFormat, entry.Name, err)
	}
	switch entry.Compression {
	case CompressionNone:
		return raw, nil
	case CompressionDeflate:
		out, err := inflate(raw, entry.UncompressedLen)
		if err != nil {
			return nil, fmt.Errorf("%w: inflating entry %q: %v", ErrArchiveFormat, entry.Name, err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: entry %q has unknown compression kind %d", ErrArchiveFormat, entry.Name, entry.Compression)
	}
}

// Close releases the archive's file handle. Calls after the first are
// no-ops that return nil.
func (a *Archive) Close() error {
	if a.file == nil {
		return nil
	}
	f := a.file
	a.file = nil
	return f.Close()
}

// embeddedFooterMagic marks the 8 bytes preceding the (offset, length)
// footer pair appended to an executable that carries an embedded archive.
var embeddedFooterMagic = [8]byte{'P', 'Y', 'B', 'T', 'A', 'R', 'C', 'H'}

// sideloadMagic is the build-time marker probed for anywhere in the
// executable to permit opening a sibling .pkg archive (spec.md §6,
// "Side-load detection").
var sideloadMagic = [8]byte{'P', 'Y', 'B', 'T', 'S', 'I', 'D', 'E'}

const footerLen = 8 + 8 + 8 // magic + offset(uint64) + length(uint64)

// OpenArchive resolves and opens the package archive for the executable at
// execPath: an embedded archive (footer-terminated) is preferred; failing
// that, a side-loaded sibling .pkg is attempted, but only if the
// executable carries the side-load magic marker (spec.md §4.2, §6).
func OpenArchive(execPath string) (*Archive, error) {
	if arc, err := openEmbeddedArchive(execPath); err == nil {
		return arc, nil
	} else if err != errNotEmbedded {
		return nil, err
	}
	return openSideloadArchive(execPath)
}

var errNotEmbedded = fmt.Errorf("no embedded archive footer")

func openEmbeddedArchive(execPath string) (*Archive, error) {
	f, err := os.Open(execPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArchiveNotFound, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %v", ErrArchiveNotFound, err)
	}
	if info.Size() < footerLen {
		f.Close()
		return nil, errNotEmbedded
	}
	footer := make([]byte, footerLen)
	if _, err := f.ReadAt(footer, info.Size()-footerLen); err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %v", ErrArchiveFormat, err)
	}
	if !bytes.Equal(footer[:8], embeddedFooterMagic[:]) {
		f.Close()
		return nil, errNotEmbedded
	}
	pkgOffset := int64(binary.LittleEndian.Uint64(footer[8:16]))

	arc, err := readTOC(f, execPath, pkgOffset)
	if err != nil {
		f.Close()
		return nil, err
	}
	return arc, nil
}

// ProbeSideloadMagic reports whether execPath contains the side-load
// magic marker anywhere in its bytes, independent of whether a sibling
// .pkg archive actually exists (spec.md §6, "Side-load detection";
// SPEC_FULL.md §4.9, "bootctl probe").
func ProbeSideloadMagic(execPath string) (bool, error) {
	content, err := os.ReadFile(execPath)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrArchiveNotFound, err)
	}
	return bytes.Contains(content, sideloadMagic[:]), nil
}

func openSideloadArchive(execPath string) (*Archive, error) {
	content, err := os.ReadFile(execPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArchiveNotFound, err)
	}
	if !bytes.Contains(content, sideloadMagic[:]) {
		return nil, fmt.Errorf("%w: side-load magic not present in executable", ErrArchiveNotFound)
	}

	pkgPath := execPath + ".pkg"
	f, err := os.Open(pkgPath)
	if err != nil {
		return nil, fmt.Errorf("%w: side-load package %q: %v", ErrArchiveNotFound, pkgPath, err)
	}
	arc, err := readTOC(f, pkgPath, 0)
	if err != nil {
		f.Close()
		return nil, err
	}
	return arc, nil
}

// readTOC parses the TOC section starting at pkgOffset within f: an 8-byte
// magic, a uint32 entry count, then that many self-length-prefixed
// msgpack-encoded records (spec.md §4.2, SPEC_FULL.md §3).
func readTOC(f *os.File, path string, pkgOffset int64) (*Archive, error) {
	r := io.NewSectionReader(f, pkgOffset, 1<<62)

	var magic [8]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, fmt.Errorf("%w: reading TOC magic: %v", ErrArchiveFormat, err)
	}
	if !bytes.Equal(magic[:], tocMagic[:]) {
		return nil, fmt.Errorf("%w: bad TOC magic in %q", ErrArchiveFormat, path)
	}

	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("%w: reading TOC count: %v", ErrArchiveFormat, err)
	}

	entries := make([]TOCEntry, 0, count)
	for i := uint32(0); i < count; i++ {
		var recLen uint32
		if err := binary.Read(r, binary.LittleEndian, &recLen); err != nil {
			return nil, fmt.Errorf("%w: reading record %d length: %v", ErrArchiveFormat, i, err)
		}
		buf := make([]byte, recLen)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fmt.Errorf("%w: record %d exceeds TOC boundary: %v", ErrArchiveFormat, i, err)
		}
		wire, err := decodeTOCEntryWire(buf)
		if err != nil {
			return nil, fmt.Errorf("%w: decoding record %d: %v", ErrArchiveFormat, i, err)
		}
		entries = append(entries, wire.toEntry())
	}

	payloadOff, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArchiveFormat, err)
	}

	return &Archive{
		file:       f,
		path:       path,
		pkgOffset:  pkgOffset,
		payloadOff: payloadOff,
		entries:    entries,
	}, nil
}

var tocMagic = [8]byte{'P', 'Y', 'B', 'T', 'T', 'O', 'C', '0'}
