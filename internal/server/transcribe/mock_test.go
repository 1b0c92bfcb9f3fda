package transcribe

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMock_ReturnsAnnotatedText(t *testing.T) {
	path := writeAudioFixture(t)
	m := NewMock(MockConfig{Text: "canned"})

	got, err := m.Transcribe(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "canned [File: "+path+"]", got)
}

func TestMock_DefaultText(t *testing.T) {
	path := writeAudioFixture(t)
	m := NewMock(MockConfig{})

	got, err := m.Transcribe(context.Background(), path)
	require.NoError(t, err)
	assert.Contains(t, got, "mock transcription")
}

func TestMock_ShouldFail(t *testing.T) {
	m := NewMock(MockConfig{ShouldFail: true, FailureMessage: "backend offline"})

	_, err := m.Transcribe(context.Background(), writeAudioFixture(t))
	require.Error(t, err)
	assert.EqualError(t, err, "backend offline")
}

func TestMock_InvalidPath(t *testing.T) {
	m := NewMock(MockConfig{})

	_, err := m.Transcribe(context.Background(), "/does/not/exist.wav")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid audio file")
}

func TestMock_DelayRespectsContext(t *testing.T) {
	m := NewMock(MockConfig{Delay: time.Minute})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := m.Transcribe(ctx, writeAudioFixture(t))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
