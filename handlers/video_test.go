package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVideoHandler_Presign(t *testing.T) {
	app := setupApp(t)
	access, _ := app.registerUser(t, "uploader@example.com")

	t.Run("requires authentication", func(t *testing.T) {
		rec := app.request(t, http.MethodPut, "/video/presigned?fileName=a.mp4&fileSize=1000&fileType=video/mp4", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid request", func(t *testing.T) {
		rec := app.request(t, http.MethodPut, "/video/presigned?fileName=lecture.mp4&fileSize=1000&fileType=video/mp4", nil, access)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "lecture.mp4")
		assert.Contains(t, rec.Body.String(), "signature=abc")
	})

	t.Run("wrong content type", func(t *testing.T) {
		rec := app.request(t, http.MethodPut, "/video/presigned?fileName=a.webm&fileSize=1000&fileType=video/webm", nil, access)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("oversize file", func(t *testing.T) {
		rec := app.request(t, http.MethodPut, "/video/presigned?fileName=big.mp4&fileSize=52428801&fileType=video/mp4", nil, access)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing parameters", func(t *testing.T) {
		rec := app.request(t, http.MethodPut, "/video/presigned?fileName=a.mp4", nil, access)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestVideoHandler_PresignRateLimit(t *testing.T) {
	app := setupApp(t)
	access, _ := app.registerUser(t, "heavy@example.com")

	url := "/video/presigned?fileName=clip.mp4&fileSize=1000&fileType=video/mp4"

	for i := 0; i < 10; i++ {
		rec := app.request(t, http.MethodPut, url, nil, access)
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i+1)
	}

	rec := app.request(t, http.MethodPut, url, nil, access)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	t.Run("another user is unaffected", func(t *testing.T) {
		otherAccess, _ := app.registerUser(t, "light@example.com")
		rec := app.request(t, http.MethodPut, url, nil, otherAccess)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestVideoHandler_Transcription(t *testing.T) {
	app := setupApp(t)
	access, _ := app.registerUser(t, "viewer@example.com")

	t.Run("requires authentication", func(t *testing.T) {
		rec := app.request(t, http.MethodGet, "/video/transcribe?filename=a.mp4", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("missing filename", func(t *testing.T) {
		rec := app.request(t, http.MethodGet, "/video/transcribe", nil, access)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("completed transcription returned", func(t *testing.T) {
		app.objects.objects["done.mp4.transcription"] = []byte(`{"results":{"transcripts":[{"transcript":"hello"}]}}`)

		rec := app.request(t, http.MethodGet, "/video/transcribe?filename=done.mp4", nil, access)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "COMPLETED")
		assert.Contains(t, rec.Body.String(), "hello")
	})

	t.Run("unknown file starts a job", func(t *testing.T) {
		rec := app.request(t, http.MethodGet, "/video/transcribe?filename=fresh.mp4", nil, access)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "IN_PROGRESS")
		assert.Contains(t, app.runner.started, "fresh.mp4")
	})

	t.Run("running job reports status", func(t *testing.T) {
		app.runner.jobs["busy.mp4"] = "IN_PROGRESS"

		rec := app.request(t, http.MethodGet, "/video/transcribe?filename=busy.mp4", nil, access)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "IN_PROGRESS")
		assert.NotContains(t, fmt.Sprint(app.runner.started), "busy.mp4")
	})
}
