package score

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Backend names accepted by Open
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

// Open builds the Blob for backend; path is used by file, dsn by postgres
func Open(ctx context.Context, backend, path, dsn string, log *zap.Logger) (Blob, error) {
	switch backend {
	case BackendMemory:
		return NewMemoryBlob(), nil
	case BackendFile, "":
		f, err := NewFileBlob(path)
		if err != nil {
			return nil, err
		}
		return f, nil
	case BackendPostgres:
		p, err := OpenPostgres(ctx, dsn, log)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}
