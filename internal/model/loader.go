package model

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"

	"loan-eligibility/internal/common/logger"
	"loan-eligibility/internal/common/metrics"
	"loan-eligibility/internal/eligibility"
)

// MaxArtifactBytes bounds artifact size for every source.
const MaxArtifactBytes = 8 << 20

const (
	SourceFile  = "file"
	SourceMinio = "minio"
)

// Source fetches raw artifact bytes by key.
type Source interface {
	Fetch(ctx context.Context, key string) ([]byte, error)
}

// FileSource reads artifacts from a directory. Keys are relative paths and
// may not escape the directory.
type FileSource struct {
	dir string
}

func NewFileSource(dir string) *FileSource {
	return &FileSource{dir: dir}
}

func (s *FileSource) Fetch(ctx context.Context, key string) ([]byte, error) {
	if key == "" || strings.Contains(key, "..") {
		return nil, fmt.Errorf("invalid artifact key %q", key)
	}
	path := filepath.Join(s.dir, filepath.Clean("/"+key))

	type result struct {
		data []byte
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		info, err := os.Stat(path)
		if err != nil {
			ch <- result{err: err}
			return
		}
		if info.Size() > MaxArtifactBytes {
			ch <- result{err: fmt.Errorf("artifact %s is %d bytes, limit is %d", key, info.Size(), MaxArtifactBytes)}
			return
		}
		data, err := os.ReadFile(path)
		ch <- result{data: data, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		return r.data, r.err
	}
}

// MinioSource reads artifacts from an object storage bucket.
type MinioSource struct {
	client *minio.Client
	bucket string
}

func NewMinioSource(client *minio.Client, bucket string) *MinioSource {
	return &MinioSource{client: client, bucket: bucket}
}

func (s *MinioSource) Fetch(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object %s/%s: %w", s.bucket, key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(io.LimitReader(obj, MaxArtifactBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read object %s/%s: %w", s.bucket, key, err)
	}
	if len(data) > MaxArtifactBytes {
		return nil, fmt.Errorf("object %s/%s exceeds %d bytes", s.bucket, key, MaxArtifactBytes)
	}
	return data, nil
}

// Loader fetches artifacts from named sources under a timeout and builds them.
type Loader struct {
	builder *Builder
	sources map[string]Source
	timeout time.Duration
	log     logger.Logger
}

func NewLoader(builder *Builder, timeout time.Duration, log logger.Logger) *Loader {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Loader{
		builder: builder,
		sources: make(map[string]Source),
		timeout: timeout,
		log:     log,
	}
}

// Register makes src available under name. Call it during startup only.
func (l *Loader) Register(name string, src Source) {
	l.sources[name] = src
}

func (l *Loader) Builder() *Builder { return l.builder }

// Load fetches key from the named source and returns the handle together
// with the raw bytes so callers can persist them.
func (l *Loader) Load(ctx context.Context, sourceName, key string) (*Handle, []byte, error) {
	ref := sourceName + ":" + key

	src, ok := l.sources[sourceName]
	if !ok {
		return nil, nil, &eligibility.ModelLoadError{Source: ref, Cause: fmt.Errorf("unknown artifact source %q", sourceName)}
	}

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	start := time.Now()
	data, err := src.Fetch(ctx, key)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("timed out after %s: %w", l.timeout, err)
		}
		l.log.Warn("Artifact fetch failed", map[string]interface{}{
			"source": sourceName,
			"key":    key,
			"error":  err.Error(),
		})
		metrics.ModelLoads.WithLabelValues(sourceName, "failed").Inc()
		return nil, nil, &eligibility.ModelLoadError{Source: ref, Cause: err}
	}

	handle, err := l.builder.Build(ref, data)
	if err != nil {
		metrics.ModelLoads.WithLabelValues(sourceName, "rejected").Inc()
		return nil, nil, err
	}
	metrics.ModelLoads.WithLabelValues(sourceName, "loaded").Inc()

	meta := handle.Metadata()
	l.log.Info("Model artifact loaded", map[string]interface{}{
		"source":            sourceName,
		"key":               key,
		"model":             meta.Name,
		"version":           meta.Version,
		"fieldOrderVersion": meta.FieldOrderVersion,
		"durationMs":        time.Since(start).Milliseconds(),
	})
	return handle, data, nil
}
