package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/medvoice/medvoice/internal/common"
	"github.com/medvoice/medvoice/internal/logging"
	"github.com/medvoice/medvoice/internal/server/auth"
	"github.com/medvoice/medvoice/internal/server/config"
	"github.com/medvoice/medvoice/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))
}

type fakeUserService struct {
	user *models.User
	err  error
}

func (f *fakeUserService) LoginWithGoogleToken(ctx context.Context, idToken string) (*models.User, string, error) {
	if f.err != nil {
		return nil, "", f.err
	}
	token, err := auth.GenerateToken(f.user.ID, f.user.Email, f.user.DisplayName, []byte(testSecret), time.Hour)
	return f.user, token, err
}

func (f *fakeUserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.user, nil
}

type fakeRecordingService struct {
	rec      *models.Recording
	chunk    *models.RecordingChunk
	err      error
	audioURL string
	audio    string

	finished []string
	deleted  []string
	notes    string
}

func (f *fakeRecordingService) Create(ctx context.Context, userID string) (*models.Recording, error) {
	return f.rec, f.err
}

func (f *fakeRecordingService) List(ctx context.Context, userID string, limit, offset int) ([]*models.Recording, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []*models.Recording{f.rec}, nil
}

func (f *fakeRecordingService) Get(ctx context.Context, userID, recordingID string) (*models.Recording, error) {
	return f.rec, f.err
}

func (f *fakeRecordingService) UploadChunk(ctx context.Context, userID, recordingID string, chunkIndex int,
	content io.Reader, durationSeconds *float64) (*models.RecordingChunk, int64, error) {
	if f.err != nil {
		return nil, 0, f.err
	}
	size, _ := io.Copy(io.Discard, content)
	return f.chunk, size, nil
}

func (f *fakeRecordingService) Pause(ctx context.Context, userID, recordingID string) (*models.Recording, error) {
	return f.rec, f.err
}

func (f *fakeRecordingService) Resume(ctx context.Context, userID, recordingID string) (*models.Recording, error) {
	return f.rec, f.err
}

func (f *fakeRecordingService) Finish(ctx context.Context, userID, recordingID string) (*models.Recording, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.finished = append(f.finished, recordingID)
	return f.rec, nil
}

func (f *fakeRecordingService) UpdateNotes(ctx context.Context, userID, recordingID, notes string) (*models.Recording, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.notes = notes
	return f.rec, nil
}

func (f *fakeRecordingService) Delete(ctx context.Context, userID, recordingID string) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, recordingID)
	return nil
}

func (f *fakeRecordingService) AudioLocation(ctx context.Context, userID, recordingID string) (string, string, error) {
	return f.audioURL, f.audio, f.err
}

func newTestServer(us UserService, rs RecordingService) *HTTPServer {
	cfg := &config.Config{
		EndpointAddr:   ":0",
		SecretKey:      testSecret,
		GoogleClientID: "client-id",
		AllowedOrigins: []string{"http://localhost:3000"},
		MaxChunkSizeMB: 10,
	}
	return NewHTTPServer(cfg, testLogger(), us, rs)
}

func bearerToken(t *testing.T, userID string) string {
	t.Helper()
	token, err := auth.GenerateToken(userID, "doc@clinic.example", "Dr. Who", []byte(testSecret), time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func doRequest(t *testing.T, h http.Handler, method, target, authz string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func sampleRecording() *models.Recording {
	return &models.Recording{
		ID: "rec-1", UserID: "u1", Status: models.StatusActive, Provider: "mock",
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
}

func TestAuthMiddleware(t *testing.T) {
	h := newTestServer(&fakeUserService{}, &fakeRecordingService{}).Handler()

	rr := doRequest(t, h, http.MethodGet, "/recordings/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = doRequest(t, h, http.MethodGet, "/recordings/", "Bearer not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Error.Message)
}

func TestGoogleTokenLogin(t *testing.T) {
	user := &models.User{ID: "u1", Email: "doc@clinic.example", DisplayName: "Dr. Who"}
	h := newTestServer(&fakeUserService{user: user}, &fakeRecordingService{}).Handler()

	body := strings.NewReader(`{"id_token":"google-token"}`)
	rr := doRequest(t, h, http.MethodPost, "/auth/google/token", "", body)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp tokenResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "bearer", resp.TokenType)
	assert.Equal(t, "u1", resp.User.ID)

	claims, err := auth.ParseToken(resp.AccessToken, []byte(testSecret))
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.Subject)
}

func TestGoogleTokenLogin_BadRequests(t *testing.T) {
	h := newTestServer(&fakeUserService{err: common.ErrorUnauthorized}, &fakeRecordingService{}).Handler()

	rr := doRequest(t, h, http.MethodPost, "/auth/google/token", "", strings.NewReader("{"))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doRequest(t, h, http.MethodPost, "/auth/google/token", "", strings.NewReader(`{"id_token":"bad"}`))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestGoogleLogin_FlowInstructions(t *testing.T) {
	h := newTestServer(&fakeUserService{}, &fakeRecordingService{}).Handler()

	rr := doRequest(t, h, http.MethodGet, "/auth/google/login", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "/auth/google/token")
}

func TestLogout(t *testing.T) {
	h := newTestServer(&fakeUserService{}, &fakeRecordingService{}).Handler()

	// stateless: no token required, clients call it after discarding theirs
	rr := doRequest(t, h, http.MethodPost, "/auth/logout", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Logged out")

	rr = doRequest(t, h, http.MethodPost, "/auth/logout", bearerToken(t, "u1"), nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestMe(t *testing.T) {
	user := &models.User{ID: "u1", Email: "doc@clinic.example", DisplayName: "Dr. Who"}
	h := newTestServer(&fakeUserService{user: user}, &fakeRecordingService{}).Handler()

	rr := doRequest(t, h, http.MethodGet, "/auth/me", bearerToken(t, "u1"), nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp userResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "doc@clinic.example", resp.Email)
}

func TestCreateRecording(t *testing.T) {
	rs := &fakeRecordingService{rec: sampleRecording()}
	h := newTestServer(&fakeUserService{}, rs).Handler()

	rr := doRequest(t, h, http.MethodPost, "/recordings/", bearerToken(t, "u1"), nil)
	require.Equal(t, http.StatusCreated, rr.Code)

	var resp recordingResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "rec-1", resp.ID)
	assert.Equal(t, "active", resp.Status)
	assert.Equal(t, "mock", resp.Provider)
}

func TestListRecordings(t *testing.T) {
	rs := &fakeRecordingService{rec: sampleRecording()}
	h := newTestServer(&fakeUserService{}, rs).Handler()

	rr := doRequest(t, h, http.MethodGet, "/recordings/?limit=5&offset=10", bearerToken(t, "u1"), nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp recordingListResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Recordings, 1)
	assert.Equal(t, 5, resp.Limit)
	assert.Equal(t, 10, resp.Offset)
}

func TestGetRecording_Errors(t *testing.T) {
	token := bearerToken(t, "u2")

	h := newTestServer(&fakeUserService{}, &fakeRecordingService{err: common.ErrorForbidden}).Handler()
	rr := doRequest(t, h, http.MethodGet, "/recordings/rec-1", token, nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	h = newTestServer(&fakeUserService{}, &fakeRecordingService{err: common.ErrorNotFound}).Handler()
	rr = doRequest(t, h, http.MethodGet, "/recordings/missing", token, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func multipartChunk(t *testing.T, index, duration, content string) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("chunk_index", index))
	if duration != "" {
		require.NoError(t, mw.WriteField("duration_seconds", duration))
	}
	fw, err := mw.CreateFormFile("audio_chunk", "chunk.wav")
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestUploadChunk(t *testing.T) {
	rs := &fakeRecordingService{
		rec:   sampleRecording(),
		chunk: &models.RecordingChunk{ID: "c1", RecordingID: "rec-1", ChunkIndex: 2, UploadedAt: time.Now()},
	}
	h := newTestServer(&fakeUserService{}, rs).Handler()

	body, contentType := multipartChunk(t, "2", "1.5", "RIFFdata")
	req := httptest.NewRequest(http.MethodPost, "/recordings/rec-1/chunks", body)
	req.Header.Set("Authorization", bearerToken(t, "u1"))
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)
	var resp chunkResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "c1", resp.ID)
	assert.Equal(t, 2, resp.ChunkIndex)
	assert.Equal(t, int64(8), resp.SizeBytes)
}

func TestUploadChunk_Validation(t *testing.T) {
	rs := &fakeRecordingService{rec: sampleRecording()}
	h := newTestServer(&fakeUserService{}, rs).Handler()
	token := bearerToken(t, "u1")

	body, contentType := multipartChunk(t, "not-a-number", "", "x")
	req := httptest.NewRequest(http.MethodPost, "/recordings/rec-1/chunks", body)
	req.Header.Set("Authorization", token)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUploadChunk_NotActive(t *testing.T) {
	h := newTestServer(&fakeUserService{}, &fakeRecordingService{err: common.ErrorNotActive}).Handler()

	body, contentType := multipartChunk(t, "0", "", "x")
	req := httptest.NewRequest(http.MethodPost, "/recordings/rec-1/chunks", body)
	req.Header.Set("Authorization", bearerToken(t, "u1"))
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUploadChunk_TooLarge(t *testing.T) {
	h := newTestServer(&fakeUserService{}, &fakeRecordingService{err: common.ErrorChunkTooLarge}).Handler()

	body, contentType := multipartChunk(t, "0", "", "x")
	req := httptest.NewRequest(http.MethodPost, "/recordings/rec-1/chunks", body)
	req.Header.Set("Authorization", bearerToken(t, "u1"))
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, common.ErrorChunkTooLarge.Error(), resp.Error.Message)
}

func TestUploadChunk_MalformedBody(t *testing.T) {
	h := newTestServer(&fakeUserService{}, &fakeRecordingService{rec: sampleRecording()}).Handler()

	req := httptest.NewRequest(http.MethodPost, "/recordings/rec-1/chunks", strings.NewReader("not a multipart body"))
	req.Header.Set("Authorization", bearerToken(t, "u1"))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=xyz")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, common.ErrorValidation.Error(), resp.Error.Message)
}

func TestFinish_ReturnsImmediately(t *testing.T) {
	rec := sampleRecording()
	rec.Status = models.StatusEnded
	rs := &fakeRecordingService{rec: rec}
	h := newTestServer(&fakeUserService{}, rs).Handler()

	rr := doRequest(t, h, http.MethodPost, "/recordings/rec-1/finish", bearerToken(t, "u1"), nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp recordingResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "ended", resp.Status)
	assert.Empty(t, resp.TranscriptionText)
	assert.Equal(t, []string{"rec-1"}, rs.finished)
}

func TestPauseAndResume(t *testing.T) {
	rs := &fakeRecordingService{rec: sampleRecording()}
	h := newTestServer(&fakeUserService{}, rs).Handler()
	token := bearerToken(t, "u1")

	rr := doRequest(t, h, http.MethodPatch, "/recordings/rec-1/pause", token, nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = doRequest(t, h, http.MethodPost, "/recordings/rec-1/resume", token, nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestUpdateNotes(t *testing.T) {
	rs := &fakeRecordingService{rec: sampleRecording()}
	h := newTestServer(&fakeUserService{}, rs).Handler()

	body := strings.NewReader(`{"notes":"follow up in two weeks"}`)
	rr := doRequest(t, h, http.MethodPatch, "/recordings/rec-1/notes", bearerToken(t, "u1"), body)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "follow up in two weeks", rs.notes)
}

func TestDeleteRecording(t *testing.T) {
	rs := &fakeRecordingService{rec: sampleRecording()}
	h := newTestServer(&fakeUserService{}, rs).Handler()

	rr := doRequest(t, h, http.MethodDelete, "/recordings/rec-1", bearerToken(t, "u1"), nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, []string{"rec-1"}, rs.deleted)
}

func TestAudio(t *testing.T) {
	t.Run("returns archive url", func(t *testing.T) {
		rs := &fakeRecordingService{audioURL: "https://minio/audio-archive/rec-1"}
		h := newTestServer(&fakeUserService{}, rs).Handler()

		rr := doRequest(t, h, http.MethodGet, "/recordings/rec-1/audio", bearerToken(t, "u1"), nil)
		require.Equal(t, http.StatusOK, rr.Code)

		var resp map[string]string
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "https://minio/audio-archive/rec-1", resp["url"])
	})

	t.Run("serves local file", func(t *testing.T) {
		path := t.TempDir() + "/assembled_audio.wav"
		require.NoError(t, os.WriteFile(path, []byte("RIFFdata"), 0o660))

		rs := &fakeRecordingService{audio: path}
		h := newTestServer(&fakeUserService{}, rs).Handler()

		rr := doRequest(t, h, http.MethodGet, "/recordings/rec-1/audio", bearerToken(t, "u1"), nil)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "RIFFdata", rr.Body.String())
	})

	t.Run("no audio yet", func(t *testing.T) {
		rs := &fakeRecordingService{err: common.ErrorNotFound}
		h := newTestServer(&fakeUserService{}, rs).Handler()

		rr := doRequest(t, h, http.MethodGet, "/recordings/rec-1/audio", bearerToken(t, "u1"), nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestCORS(t *testing.T) {
	h := newTestServer(&fakeUserService{}, &fakeRecordingService{}).Handler()

	req := httptest.NewRequest(http.MethodOptions, "/recordings/", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "http://localhost:3000", rr.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/recordings/", nil)
	req.Header.Set("Origin", "http://evil.example")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestInternalErrorsAreOpaque(t *testing.T) {
	h := newTestServer(&fakeUserService{}, &fakeRecordingService{err: common.ErrorInternal}).Handler()

	rr := doRequest(t, h, http.MethodGet, "/recordings/rec-1", bearerToken(t, "u1"), nil)
	require.Equal(t, http.StatusInternalServerError, rr.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "internal server error", resp.Error.Message)
}
