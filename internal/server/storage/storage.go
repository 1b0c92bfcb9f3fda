// Package storage lays out audio blobs on the local filesystem: one
// directory per recording under a configured root, chunk files named by
// index, and a fixed assembled-output filename alongside them.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const (
	chunkFilenameFormat = "chunk_%04d.wav"
	assembledFilename   = "assembled_audio.wav"
)

type Store struct {
	root string
}

func NewStore(root string) *Store {
	return &Store{root: root}
}

// RecordingDir returns the directory holding all blobs of one recording.
func (s *Store) RecordingDir(recordingID string) string {
	return filepath.Join(s.root, recordingID)
}

// EnsureRecordingDir creates the per-recording directory if needed.
func (s *Store) EnsureRecordingDir(recordingID string) (string, error) {
	dir := s.RecordingDir(recordingID)
	if err := os.MkdirAll(dir, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return dir, nil
}

// ChunkPath returns the blob path for a chunk index. Duplicate indices map
// to the same file; the later upload wins, matching row retention being the
// source of truth for ordering.
func (s *Store) ChunkPath(recordingID string, index int) string {
	return filepath.Join(s.RecordingDir(recordingID), fmt.Sprintf(chunkFilenameFormat, index))
}

// AssembledPath returns the fixed output path of the assembled audio.
func (s *Store) AssembledPath(recordingID string) string {
	return filepath.Join(s.RecordingDir(recordingID), assembledFilename)
}

// SaveChunk writes the chunk content and returns its path and size.
// The caller bounds the reader; this layer writes whatever it is given.
func (s *Store) SaveChunk(recordingID string, index int, r io.Reader) (string, int64, error) {
	if _, err := s.EnsureRecordingDir(recordingID); err != nil {
		return "", 0, err
	}

	path := s.ChunkPath(recordingID, index)
	f, err := os.Create(path)
	if err != nil {
		return "", 0, fmt.Errorf("create %s: %w", path, err)
	}

	size, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return "", 0, fmt.Errorf("write %s: %w", path, err)
	}

	return path, size, nil
}

// Remove deletes a single blob. Missing files are not an error.
func (s *Store) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// RemoveRecording deletes the whole per-recording directory.
func (s *Store) RemoveRecording(recordingID string) error {
	return os.RemoveAll(s.RecordingDir(recordingID))
}
