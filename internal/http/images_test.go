package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/chapterdesk/internal/entities"
)

func TestImages_Upload(t *testing.T) {
	env := setupTestEnv(t, nil)

	body, contentType := multipartBody(t, nil, "image", "Cover Art.PNG", pngData)
	req, _ := http.NewRequest(http.MethodPost, "/api/uploads/images", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp struct {
		URL string `json:"url"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, strings.HasPrefix(resp.URL, "/uploads/images/"), resp.URL)
	assert.True(t, strings.HasSuffix(resp.URL, "-cover-art.png"), resp.URL)

	var records []entities.UploadedImage
	require.NoError(t, env.db.DB.Find(&records).Error)
	require.Len(t, records, 1)
	assert.Equal(t, "Cover Art.PNG", records[0].OriginalName)
	assert.Equal(t, "image/png", records[0].ContentType)

	w = httptest.NewRecorder()
	getReq, _ := http.NewRequest(http.MethodGet, resp.URL, nil)
	env.router.ServeHTTP(w, getReq)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestImages_UploadRejectsNonImage(t *testing.T) {
	env := setupTestEnv(t, nil)

	body, contentType := multipartBody(t, nil, "image", "notes.png", []byte("just some text"))
	req, _ := http.NewRequest(http.MethodPost, "/api/uploads/images", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var count int64
	require.NoError(t, env.db.DB.Model(&entities.UploadedImage{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestImages_UploadMissingField(t *testing.T) {
	env := setupTestEnv(t, nil)

	body, contentType := multipartBody(t, map[string]string{"other": "x"}, "", "", nil)
	req, _ := http.NewRequest(http.MethodPost, "/api/uploads/images", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestImages_UploadTooLarge(t *testing.T) {
	env := setupTestEnv(t, nil)

	big := append(append([]byte{}, pngData...), make([]byte, 2<<20)...)
	body, contentType := multipartBody(t, nil, "image", "huge.png", big)
	req, _ := http.NewRequest(http.MethodPost, "/api/uploads/images", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}
