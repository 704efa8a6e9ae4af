// Package pyboot implements the application bootloader for frozen programs
// that embed a Python interpreter inside a self-contained native executable.
//
// # Architecture Overview
//
// At startup the bootloader resolves its role in a two-process (or
// single-process directory-mode) hierarchy, opens the archive attached to
// or beside the executable, and either:
//
//  1. extracts the archive to an ephemeral directory and spawns a child
//     that re-enters this same flow (single-file PARENT), or
//  2. loads the discovered libpython, configures it from the archive's
//     runtime-option entries, imports the bootstrap code objects, and
//     runs the user entry point (MAIN / SUBPROCESS).
//
// # Process roles
//
//	PARENT_NEEDS_RESTART -> MAIN -> SUBPROCESS   (directory mode, other POSIX)
//	PARENT -> MAIN -> SUBPROCESS                 (single-file mode)
//
// See ProcessLevel for the roles and resolveRole for the full state table.
//
// # Archive
//
// The Archive Client (see Archive, OpenArchive) exposes a forward iterator
// over a table of contents; consumers never touch the on-disk encoding
// directly.
//
// # Dynamic Python binding
//
// NewPythonBinding loads a version-parameterized libpython via purego and
// binds whichever of the two initialization protocols (legacy PEP 587-style
// or new PEP 741-style) the library exposes.
//
// # Companion tool
//
// cmd/bootctl is a small diagnostic CLI for inspecting an archive's TOC and
// parsed runtime options outside of the bootloader's own startup path.
package pyboot
