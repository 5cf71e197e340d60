package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"onboarding-media/constant"
	"onboarding-media/dto"
	"onboarding-media/pkg/auth"
	"onboarding-media/service"
)

const testSecret = "handler-test-secret"

type svcStub struct {
	uploadUser string
	uploadRole string
	uploadErr  error
	result     *dto.UploadResult

	items   []dto.MediaItem
	listErr error

	deletedId uuid.UUID
	deleteErr error
}

func (s *svcStub) Upload(ctx context.Context, userId string, role string, file *multipart.FileHeader) (*dto.UploadResult, error) {
	s.uploadUser = userId
	s.uploadRole = role
	if s.uploadErr != nil {
		return nil, s.uploadErr
	}
	if s.result != nil {
		return s.result, nil
	}
	return &dto.UploadResult{Id: uuid.New(), Processing: false, Url: "https://cdn.example.com/static/x.jpg"}, nil
}

func (s *svcStub) List(ctx context.Context, modelId uuid.UUID) ([]dto.MediaItem, error) {
	return s.items, s.listErr
}

func (s *svcStub) Delete(ctx context.Context, userId string, mediaId uuid.UUID) error {
	s.deletedId = mediaId
	return s.deleteErr
}

func newTestRouter(svc service.IngestionService) *gin.Engine {
	gin.SetMode(gin.TestMode)

	verifier := auth.NewJWTVerifier(testSecret)
	h := NewHandler(svc)

	r := gin.New()
	r.GET("/", h.Root)
	r.GET("/media", h.ListMedia)
	r.POST("/upload", LimitBody(constant.MaxVideoBytes), RequireAuth(verifier), h.Upload)
	r.DELETE("/media", RequireAuth(verifier), h.DeleteMedia)
	return r
}

func testToken(t *testing.T, subject string) string {
	t.Helper()

	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func multipartBody(t *testing.T, formRole string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "photo.jpg")
	require.NoError(t, err)
	_, err = part.Write([]byte{0xff, 0xd8, 0xff, 0xe0})
	require.NoError(t, err)
	if formRole != "" {
		require.NoError(t, writer.WriteField("media_role", formRole))
	}
	require.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

func TestRoot(t *testing.T) {
	r := newTestRouter(&svcStub{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, w.Code)
	require.NotEmpty(t, w.Body.String())
}

func TestUpload_RequiresBearerToken(t *testing.T) {
	r := newTestRouter(&svcStub{})

	body, contentType := multipartBody(t, "profile")
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUpload_RoleSourcePrecedence(t *testing.T) {
	cases := []struct {
		name     string
		formRole string
		query    string
		header   string
		want     string
	}{
		{name: "form wins", formRole: "profile", query: "?media_role=polaroid", header: "portfolio", want: "profile"},
		{name: "query beats header", query: "?media_role=polaroid", header: "portfolio", want: "polaroid"},
		{name: "header as fallback", header: "portfolio", want: "portfolio"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stub := &svcStub{}
			r := newTestRouter(stub)

			body, contentType := multipartBody(t, tc.formRole)
			req := httptest.NewRequest(http.MethodPost, "/upload"+tc.query, body)
			req.Header.Set("Content-Type", contentType)
			req.Header.Set("Authorization", "Bearer "+testToken(t, "user-1"))
			if tc.header != "" {
				req.Header.Set("X-Media-Role", tc.header)
			}

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			require.Equal(t, http.StatusOK, w.Code)
			require.Equal(t, tc.want, stub.uploadRole)
			require.Equal(t, "user-1", stub.uploadUser)
		})
	}
}

func TestUpload_MissingFile(t *testing.T) {
	r := newTestRouter(&svcStub{})

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.WriteField("media_role", "profile"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+testToken(t, "user-1"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpload_ErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{name: "invalid role", err: service.ErrInvalidRole, want: http.StatusBadRequest},
		{name: "invalid media type", err: service.ErrInvalidMediaType, want: http.StatusBadRequest},
		{name: "legacy format", err: service.ErrUnsupportedLegacyFormat, want: http.StatusBadRequest},
		{name: "too large", err: service.ErrPayloadTooLarge, want: http.StatusRequestEntityTooLarge},
		{name: "capacity", err: service.ErrCapacityExceeded, want: http.StatusConflict},
		{name: "no profile", err: service.ErrOwnerProfileNotFound, want: http.StatusNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRouter(&svcStub{uploadErr: tc.err})

			body, contentType := multipartBody(t, "profile")
			req := httptest.NewRequest(http.MethodPost, "/upload", body)
			req.Header.Set("Content-Type", contentType)
			req.Header.Set("Authorization", "Bearer "+testToken(t, "user-1"))

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			require.Equal(t, tc.want, w.Code)

			var payload map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
			require.NotEmpty(t, payload["error"])
		})
	}
}

func TestListMedia(t *testing.T) {
	items := []dto.MediaItem{
		{Id: uuid.New(), MediaRole: constant.RoleProfile, MediaUrl: "u1"},
		{Id: uuid.New(), MediaRole: constant.RoleIntroVideo, Processing: true},
	}
	r := newTestRouter(&svcStub{items: items})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/media?model_id="+uuid.NewString(), nil))

	require.Equal(t, http.StatusOK, w.Code)

	var got []dto.MediaItem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 2)
}

func TestListMedia_InvalidModelId(t *testing.T) {
	r := newTestRouter(&svcStub{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/media?model_id=nope", nil))

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteMedia_OwnershipMismatch(t *testing.T) {
	r := newTestRouter(&svcStub{deleteErr: service.ErrOwnershipMismatch})

	req := httptest.NewRequest(http.MethodDelete, "/media?id="+uuid.NewString(), nil)
	req.Header.Set("Authorization", "Bearer "+testToken(t, "user-1"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestDeleteMedia_Success(t *testing.T) {
	stub := &svcStub{}
	r := newTestRouter(stub)

	id := uuid.New()
	req := httptest.NewRequest(http.MethodDelete, "/media?id="+id.String(), nil)
	req.Header.Set("Authorization", "Bearer "+testToken(t, "user-1"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, id, stub.deletedId)
	require.JSONEq(t, `{"success":true}`, w.Body.String())
}
