package vectorindex

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"newsbrief/internal/core"
)

// Persisted index format: a vector blob and a metadata table that are always
// read and written as a pair. The blob is a fixed header (magic, version,
// dimension, row count) followed by row-major little-endian float32 values;
// metadata is a JSON array whose position matches the blob's row order.

const (
	indexMagic   = "NBVI"
	indexVersion = uint32(1)

	vectorsFile  = "vectors.idx"
	metadataFile = "metadata.json"
)

type persistPaths struct {
	vectors  string
	metadata string
}

func newPersistPaths(dataDir string) persistPaths {
	return persistPaths{
		vectors:  filepath.Join(dataDir, vectorsFile),
		metadata: filepath.Join(dataDir, metadataFile),
	}
}

// load reads the persisted pair. Neither file existing yields an empty index;
// only one existing, or either being unreadable, is an error because the pair
// can no longer be trusted to be aligned.
func load(paths persistPaths, dim int) ([][]float32, []core.ArticleMetadata, error) {
	_, vecErr := os.Stat(paths.vectors)
	_, metaErr := os.Stat(paths.metadata)

	vecMissing := errors.Is(vecErr, fs.ErrNotExist)
	metaMissing := errors.Is(metaErr, fs.ErrNotExist)

	if vecMissing && metaMissing {
		return nil, nil, nil
	}
	if vecMissing != metaMissing {
		return nil, nil, fmt.Errorf("persisted index pair is incomplete: vectors=%v metadata=%v", !vecMissing, !metaMissing)
	}

	vectors, err := readVectors(paths.vectors, dim)
	if err != nil {
		return nil, nil, err
	}

	metadata, err := readMetadata(paths.metadata)
	if err != nil {
		return nil, nil, err
	}

	if len(vectors) != len(metadata) {
		return nil, nil, fmt.Errorf("persisted index is misaligned: %d vector rows vs %d metadata rows",
			len(vectors), len(metadata))
	}

	return vectors, metadata, nil
}

// save writes both artifacts to temporary files and renames them into place,
// so a crash mid-write never leaves a partially written artifact behind.
func save(paths persistPaths, dim int, vectors [][]float32, metadata []core.ArticleMetadata) error {
	if err := os.MkdirAll(filepath.Dir(paths.vectors), 0755); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}

	vecTmp := paths.vectors + ".tmp"
	metaTmp := paths.metadata + ".tmp"

	if err := writeVectors(vecTmp, dim, vectors); err != nil {
		return err
	}
	if err := writeMetadata(metaTmp, metadata); err != nil {
		os.Remove(vecTmp)
		return err
	}

	if err := os.Rename(vecTmp, paths.vectors); err != nil {
		os.Remove(vecTmp)
		os.Remove(metaTmp)
		return fmt.Errorf("failed to replace vector blob: %w", err)
	}
	if err := os.Rename(metaTmp, paths.metadata); err != nil {
		os.Remove(metaTmp)
		return fmt.Errorf("failed to replace metadata table: %w", err)
	}

	return nil
}

func writeVectors(path string, dim int, vectors [][]float32) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create vector blob: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if _, err := w.WriteString(indexMagic); err != nil {
		return fmt.Errorf("failed to write vector blob header: %w", err)
	}
	for _, v := range []uint32{indexVersion, uint32(dim), uint32(len(vectors))} {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return fmt.Errorf("failed to write vector blob header: %w", err)
		}
	}
	for _, row := range vectors {
		if err := binary.Write(w, binary.LittleEndian, row); err != nil {
			return fmt.Errorf("failed to write vector row: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to flush vector blob: %w", err)
	}
	return f.Sync()
}

func readVectors(path string, dim int) ([][]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open vector blob: %w", err)
	}
	defer f.Close()

	r := bufio.NewReader(f)

	magic := make([]byte, len(indexMagic))
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, fmt.Errorf("failed to read vector blob header: %w", err)
	}
	if string(magic) != indexMagic {
		return nil, fmt.Errorf("vector blob has unexpected magic %q", magic)
	}

	var version, fileDim, count uint32
	for _, dst := range []*uint32{&version, &fileDim, &count} {
		if err := binary.Read(r, binary.LittleEndian, dst); err != nil {
			return nil, fmt.Errorf("failed to read vector blob header: %w", err)
		}
	}
	if version != indexVersion {
		return nil, fmt.Errorf("vector blob version %d is not supported", version)
	}
	if int(fileDim) != dim {
		return nil, fmt.Errorf("persisted index dimension %d does not match configured dimension %d", fileDim, dim)
	}

	vectors := make([][]float32, count)
	for i := range vectors {
		row := make([]float32, dim)
		if err := binary.Read(r, binary.LittleEndian, row); err != nil {
			return nil, fmt.Errorf("failed to read vector row %d: %w", i, err)
		}
		vectors[i] = row
	}
	return vectors, nil
}

func writeMetadata(path string, metadata []core.ArticleMetadata) error {
	if metadata == nil {
		metadata = []core.ArticleMetadata{}
	}
	data, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to encode metadata table: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write metadata table: %w", err)
	}
	return nil
}

func readMetadata(path string) ([]core.ArticleMetadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata table: %w", err)
	}
	var metadata []core.ArticleMetadata
	if err := json.Unmarshal(data, &metadata); err != nil {
		return nil, fmt.Errorf("failed to decode metadata table: %w", err)
	}
	return metadata, nil
}
