package interfaces

import (
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"application-intake/domain"
	"application-intake/infrastructure"
)

func newAdminServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServer(t, func(cfg *infrastructure.Config) {
		cfg.Admin.Username = "reviewer"
		cfg.Admin.Password = "s3cret"
	})
}

func (s *testServer) seed(t *testing.T) {
	t.Helper()
	email := "ravi@example.org"
	apps := []domain.Application{
		{Name: "Asha", Phone: "111", Age: 21, Qualification: "BA", GraduationYear: 2022, Location: "Puri",
			VideoFilename: "video_1_a.mp4", UploadedAt: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)},
		{Name: "Ravi", Email: &email, Phone: "222", Age: 30, Qualification: "MBA", GraduationYear: 2018, Location: "Cuttack",
			VideoFilename: "video_2_b.mp4", UploadedAt: time.Date(2025, 3, 2, 9, 30, 0, 0, time.UTC)},
		{Name: "O&#x27;Neil", Phone: "333", Age: 40, Qualification: "PhD", GraduationYear: 2010, Location: "Puri",
			VideoFilename: "video_3_c.mp4", UploadedAt: time.Date(2025, 3, 2, 11, 0, 0, 0, time.UTC)},
	}
	require.NoError(t, s.db.Create(&apps).Error)
}

func (s *testServer) admin(t *testing.T, target string, auth bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if auth {
		req.SetBasicAuth("reviewer", "s3cret")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

type listResponse struct {
	Total        int64                `json:"total"`
	Applications []domain.Application `json:"applications"`
}

func TestAdmin_DisabledWithoutPassword(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.admin(t, "/admin/applications", false)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdmin_RequiresBasicAuth(t *testing.T) {
	s := newAdminServer(t)

	w := s.admin(t, "/admin/applications", false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/admin/applications", nil)
	req.SetBasicAuth("reviewer", "wrong")
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdmin_ListApplications(t *testing.T) {
	s := newAdminServer(t)
	s.seed(t)

	tests := []struct {
		query string
		total int64
		first string
	}{
		{"", 3, "O&#x27;Neil"},
		{"?location=Puri", 2, "O&#x27;Neil"},
		{"?search=example.org", 1, "Ravi"},
		{"?name=O'Neil", 1, "O&#x27;Neil"},
		{"?date=2025-03-01", 1, "Asha"},
		{"?phone=999", 0, ""},
		{"?filter_location=Cuttack", 1, "Ravi"},
		{"?filter_name=Asha&filter_date=2025-03-01", 1, "Asha"},
		{"?filter_email=example.org&filter_phone=222", 1, "Ravi"},
		{"?filter_date=2025-03-02", 2, "O&#x27;Neil"},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := s.admin(t, "/admin/applications"+tt.query, true)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())

			var resp listResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.total, resp.Total)
			require.Len(t, resp.Applications, int(tt.total))
			if tt.first != "" {
				assert.Equal(t, tt.first, resp.Applications[0].Name)
			}
		})
	}
}

func TestAdmin_InvalidDate(t *testing.T) {
	s := newAdminServer(t)

	for _, target := range []string{"/admin/applications?date=03/01/2025", "/admin/applications/export.csv?date=yesterday", "/admin/applications?filter_date=2025-13-40"} {
		w := s.admin(t, target, true)
		assert.Equal(t, http.StatusBadRequest, w.Code, target)
		assert.Contains(t, w.Body.String(), "YYYY-MM-DD")
	}
}

func TestAdmin_ExportApplications(t *testing.T) {
	s := newAdminServer(t)
	s.seed(t)

	w := s.admin(t, "/admin/applications/export.csv?filter_location=Puri", true)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Regexp(t, `^attachment; filename="submissions_\d{4}-\d{2}-\d{2}_\d{2}-\d{2}-\d{2}\.csv"$`, w.Header().Get("Content-Disposition"))

	body := w.Body.String()
	require.True(t, strings.HasPrefix(body, utf8BOM))

	records, err := csv.NewReader(strings.NewReader(strings.TrimPrefix(body, utf8BOM))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, csvHeader, records[0])
	assert.Equal(t, "O&#x27;Neil", records[1][1])
	assert.Equal(t, "", records[1][2])
	assert.Equal(t, "Asha", records[2][1])
	assert.Equal(t, "video_1_a.mp4", records[2][8])
}

func TestAdmin_DownloadVideo(t *testing.T) {
	s := newAdminServer(t)
	s.expectPublish()
	video := defaultVideo()

	w := s.upload(t, validForm(), video)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	apps := s.applications(t)
	require.Len(t, apps, 1)

	w = s.admin(t, "/admin/videos/"+apps[0].VideoFilename, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, video.content, w.Body.Bytes())

	w = s.admin(t, "/admin/videos/video_1_00000000000000000000000000000000.mp4", true)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.admin(t, "/admin/videos/notes.txt", true)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
