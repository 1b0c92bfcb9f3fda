package models

import (
	"fmt"
	"time"
)

// RecordingStatus is the lifecycle state of a recording session.
type RecordingStatus string

const (
	StatusActive RecordingStatus = "active"
	StatusPaused RecordingStatus = "paused"
	StatusEnded  RecordingStatus = "ended"
)

// ParseRecordingStatus converts a raw string into a RecordingStatus,
// rejecting anything outside the enum.
func ParseRecordingStatus(s string) (RecordingStatus, error) {
	switch RecordingStatus(s) {
	case StatusActive, StatusPaused, StatusEnded:
		return RecordingStatus(s), nil
	default:
		return "", fmt.Errorf("unknown recording status %q", s)
	}
}

// Recording is one audio-capture session owned by a user.
//
// AudioFilePath and TranscriptionText stay empty until the transcription
// pipeline finishes; they are written only after the status becomes ended.
type Recording struct {
	ID                string
	UserID            string
	Status            RecordingStatus
	CreatedAt         time.Time
	UpdatedAt         time.Time
	AudioFilePath     string
	TranscriptionText string
	Provider          string
	Notes             string
	ChunkCount        int
}

// RecordingChunk is one uploaded audio segment of a recording, ordered by a
// caller-supplied index. Indices are not required to be unique or gap-free.
type RecordingChunk struct {
	ID              string
	RecordingID     string
	ChunkIndex      int
	AudioBlobPath   string
	DurationSeconds *float64
	UploadedAt      time.Time
}
