package templates

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileBackend keeps the mapping in a single human-readable file. The format is
// picked by extension: .json for the legacy texts.json layout, YAML otherwise.
type FileBackend struct {
	path string
}

// NewFileBackend returns a backend bound to path.
func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path}
}

// Describe implements Backend.
func (b *FileBackend) Describe() string {
	return "file:" + b.path
}

func (b *FileBackend) isJSON() bool {
	return strings.EqualFold(filepath.Ext(b.path), ".json")
}

// Load implements Backend.
func (b *FileBackend) Load(ctx context.Context) (Texts, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(b.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNoSource
		}
		return nil, fmt.Errorf("read %s: %w", b.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrNoSource
	}
	texts, err := b.decode(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", b.path, err)
	}
	return texts, nil
}

// Save implements Backend by writing a temp file next to the target and renaming it
// over the target, so a reader sees either the old or the new file.
func (b *FileBackend) Save(ctx context.Context, texts Texts) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := b.encode(texts)
	if err != nil {
		return fmt.Errorf("encode %s: %w", b.path, err)
	}
	return writeAtomic(b.path, data, 0o644)
}

func (b *FileBackend) decode(data []byte) (Texts, error) {
	var texts Texts
	if b.isJSON() {
		if err := json.Unmarshal(data, &texts); err != nil {
			return nil, err
		}
		return texts, nil
	}
	if err := yaml.Unmarshal(data, &texts); err != nil {
		return nil, err
	}
	return texts, nil
}

// encode renders texts in the file's format. The legacy JSON form replaces
// invalid UTF-8 with U+FFFD, so only valid text round-trips byte for byte; the
// Bot API only delivers valid UTF-8.
func (b *FileBackend) encode(texts Texts) ([]byte, error) {
	if texts == nil {
		texts = Texts{}
	}
	var buf bytes.Buffer
	if b.isJSON() {
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(texts); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(texts); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeAtomic(path string, data []byte, mode os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = os.Remove(tmpPath)
	}()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Chmod(mode); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
