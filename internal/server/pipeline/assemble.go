package pipeline

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"sort"

	"github.com/medvoice/medvoice/internal/common"
	"github.com/medvoice/medvoice/internal/logging"
	"github.com/medvoice/medvoice/internal/server/models"
	"github.com/medvoice/medvoice/internal/server/storage"
)

// Assembler concatenates the ordered chunk blobs of a recording into one
// audio file at the store's fixed assembled path.
type Assembler struct {
	store  *storage.Store
	logger logging.Logger
}

func NewAssembler(store *storage.Store, logger logging.Logger) *Assembler {
	return &Assembler{store: store, logger: logger.With("module", "assembler")}
}

// Assemble loads every chunk in ascending index order (ties keep arrival
// order), skipping blobs that are missing or unreadable. Chunks from one
// capture session share a WAV format, so the first loaded chunk keeps its
// header and later ones contribute only their audio payload. Zero loadable
// chunks fail with common.ErrorNoAudio and nothing is written; success
// overwrites the assembled file and returns its path.
func (a *Assembler) Assemble(ctx context.Context, recordingID string, chunks []*models.RecordingChunk) (string, error) {
	ordered := make([]*models.RecordingChunk, len(chunks))
	copy(ordered, chunks)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].ChunkIndex < ordered[j].ChunkIndex
	})

	var combined []byte
	loaded := 0

	for _, chunk := range ordered {
		content, err := os.ReadFile(chunk.AudioBlobPath)
		if err != nil {
			a.logger.Warn(ctx, "skipping unreadable chunk",
				"recording_id", recordingID, "chunk_index", chunk.ChunkIndex, "path", chunk.AudioBlobPath, "error", err)
			continue
		}

		if loaded == 0 {
			combined = content
		} else {
			combined = append(combined, wavPayload(content)...)
		}
		loaded++
	}

	if loaded == 0 {
		return "", common.ErrorNoAudio
	}

	fixWavSizes(combined)

	if _, err := a.store.EnsureRecordingDir(recordingID); err != nil {
		return "", err
	}

	outputPath := a.store.AssembledPath(recordingID)
	if err := os.WriteFile(outputPath, combined, 0o660); err != nil {
		return "", fmt.Errorf("write assembled audio: %w", err)
	}

	a.logger.Info(ctx, "assembled audio saved",
		"recording_id", recordingID, "path", outputPath, "chunks", loaded, "bytes", len(combined))

	return outputPath, nil
}

// wavPayload returns the audio data of a WAV blob, stripping the RIFF
// container so appended chunks do not repeat headers. Content without a
// recognizable RIFF header is returned unchanged.
func wavPayload(b []byte) []byte {
	if len(b) < 12 || string(b[0:4]) != "RIFF" || string(b[8:12]) != "WAVE" {
		return b
	}

	off := 12
	for off+8 <= len(b) {
		id := string(b[off : off+4])
		size := int(binary.LittleEndian.Uint32(b[off+4 : off+8]))
		if id == "data" {
			return b[off+8:]
		}
		off += 8 + size
		if size%2 == 1 {
			off++ // chunks are word-aligned
		}
	}
	return b
}

// fixWavSizes patches the RIFF and data chunk lengths in place after
// concatenation so players see the combined duration. A non-WAV buffer is
// left untouched.
func fixWavSizes(b []byte) {
	if len(b) < 12 || string(b[0:4]) != "RIFF" || string(b[8:12]) != "WAVE" {
		return
	}

	binary.LittleEndian.PutUint32(b[4:8], uint32(len(b)-8))

	off := 12
	for off+8 <= len(b) {
		id := string(b[off : off+4])
		size := int(binary.LittleEndian.Uint32(b[off+4 : off+8]))
		if id == "data" {
			binary.LittleEndian.PutUint32(b[off+4:off+8], uint32(len(b)-off-8))
			return
		}
		off += 8 + size
		if size%2 == 1 {
			off++
		}
	}
}
