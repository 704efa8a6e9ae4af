package pyboot

import "errors"

// Error kinds surfaced by the bootloader. Each is a distinct sentinel so
// callers can match with errors.Is while call sites still wrap them with
// fmt.Errorf("...: %w", err) for a human-readable trail.
var (
	ErrArchiveNotFound          = errors.New("archive not found")
	ErrArchiveFormat            = errors.New("archive format invalid")
	ErrOptionsParse             = errors.New("runtime options parse failed")
	ErrDynLibLoad               = errors.New("python shared library load failed")
	ErrSymbolMissing            = errors.New("required python symbol missing")
	ErrUnsupportedPythonVersion = errors.New("unsupported python version")
	ErrConfigFailure            = errors.New("interpreter configuration failed")
	ErrExtractionFailure        = errors.New("archive extraction failed")
	ErrChildSpawnFailure        = errors.New("child process spawn failed")
	ErrCleanupFailure           = errors.New("cleanup failed")
	ErrEnvironmentCorrupted     = errors.New("environment corrupted")
	ErrPlatformFailure          = errors.New("platform operation failed")
	ErrSplashUnavailable        = errors.New("splash subsystem unavailable")
)
