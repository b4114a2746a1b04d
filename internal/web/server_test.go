package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/linkboard/internal/config"
	"github.com/JonMunkholm/linkboard/internal/core"
	"github.com/JonMunkholm/linkboard/internal/github"
	"github.com/JonMunkholm/linkboard/internal/session"
)

const reviewsCSV = "Ulasan,Rating,Kategori,Nama Produk,label\n" +
	"Bagus sekali,5,Elektronik,TV,1\n" +
	"Buruk,1,Elektronik,Radio,0\n" +
	"Lumayan,3,Fashion,Kaos,1"

// repo is an in-memory stand-in for the GitHub-backed store.
type repo struct {
	mu    sync.Mutex
	files map[string]github.File
	n     int
}

func newRepo() *repo {
	r := &repo{files: make(map[string]github.File)}
	r.files["Login.json"] = github.File{Path: "Login.json", SHA: "u1",
		Content: []byte(`[{"username":"agung","password":"rahasia","nama":"Agung"}]`)}
	return r
}

func (r *repo) GetFile(_ context.Context, _, path string) (*github.File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.files[path]
	if !ok {
		return nil, github.ErrNotFound
	}
	return &f, nil
}

func (r *repo) PutFile(_ context.Context, _, path string, content []byte, _, _ string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.n++
	sha := fmt.Sprintf("s%d", r.n)
	r.files[path] = github.File{Path: path, SHA: sha, Content: content}
	return sha, nil
}

func (r *repo) DeleteFile(_ context.Context, _, path, _, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.files[path]; !ok {
		return github.ErrNotFound
	}
	delete(r.files, path)
	return nil
}

func (r *repo) Raw(ctx context.Context, path string) ([]byte, error) {
	f, err := r.GetFile(ctx, "", path)
	if err != nil {
		return nil, err
	}
	return f.Content, nil
}

type staticToken struct{}

func (staticToken) Token(context.Context) (string, error) { return "tok", nil }
func (staticToken) Invalidate()                           {}

func testConfig() *config.Config {
	return &config.Config{
		Server:   config.ServerConfig{RequestTimeout: 5 * time.Second},
		Upload:   config.UploadConfig{MaxFileSize: 1 << 16},
		Security: config.SecurityConfig{EnableCSP: true},
		Session:  config.SessionConfig{TTL: time.Hour, CookieName: "linkboard_session"},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	svc := core.NewService(newRepo(), staticToken{}, nil, core.ServiceConfig{MaxFileSize: cfg.Upload.MaxFileSize})
	sessions := session.NewStore(cfg.Session.TTL)
	sessions.OnEvict(svc.DropWorkspace)
	return NewServer(svc, sessions, cfg)
}

func do(t *testing.T, s *Server, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func login(t *testing.T, s *Server) *http.Cookie {
	t.Helper()
	rec := do(t, s, jsonRequest(http.MethodPost, "/api/login", `{"username":"agung","password":"rahasia"}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	for _, c := range rec.Result().Cookies() {
		if c.Name == "linkboard_session" {
			return c
		}
	}
	t.Fatal("no session cookie")
	return nil
}

func uploadRequest(t *testing.T, fileName, contentType, body string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, fileName))
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = io.WriteString(part, body)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/analysis/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	body := decode[healthResponse](t, rec)
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, 5, body.Uploads.MaxConcurrent)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))
}

func TestLoginLogout(t *testing.T) {
	s := newTestServer(t, testConfig())
	cookie := login(t, s)
	assert.True(t, cookie.HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(cookie)
	rec := do(t, s, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Agung", decode[session.Session](t, rec).Nama)

	req = httptest.NewRequest(http.MethodPost, "/api/logout", nil)
	req.AddCookie(cookie)
	assert.Equal(t, http.StatusNoContent, do(t, s, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(cookie)
	assert.Equal(t, http.StatusUnauthorized, do(t, s, req).Code)
}

func TestLogin_Errors(t *testing.T) {
	s := newTestServer(t, testConfig())

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"wrong password", `{"username":"agung","password":"x"}`, http.StatusUnauthorized, "AUTH001"},
		{"missing username", `{"username":"","password":"x"}`, http.StatusBadRequest, "AUTH002"},
		{"malformed body", `{"username":`, http.StatusBadRequest, "REQ001"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, jsonRequest(http.MethodPost, "/api/login", tt.body))
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCode, decode[ErrorResponse](t, rec).Code)
		})
	}
}

func TestLinks_CreateResolveAndPages(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := do(t, s, jsonRequest(http.MethodPost, "/api/links",
		`{"buttons":[{"buttonName":"Toko <Kami>","url":"https://shop.example/?a=1&b=2"}]}`))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[linkResponse](t, rec)
	require.Len(t, created.ID, 10)

	rec = do(t, s, httptest.NewRequest(http.MethodGet, "/api/links/"+created.ID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created.Buttons, decode[linkResponse](t, rec).Buttons)

	rec = do(t, s, httptest.NewRequest(http.MethodGet, "/api/links/search?q=toko", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), created.ID)

	rec = do(t, s, httptest.NewRequest(http.MethodGet, "/"+created.ID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	page := rec.Body.String()
	assert.Contains(t, page, "Toko &lt;Kami&gt;")
	assert.Contains(t, page, "/getlink?url=https%3A%2F%2Fshop.example")
}

func TestLinks_Errors(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := do(t, s, jsonRequest(http.MethodPost, "/api/links", `{"buttons":[{"buttonName":"","url":""}]}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[ErrorResponse](t, rec)
	assert.Equal(t, "LINK002", body.Code)
	assert.Len(t, body.Fields, 2)

	rec = do(t, s, httptest.NewRequest(http.MethodGet, "/api/links/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "LINK001", decode[ErrorResponse](t, rec).Code)

	rec = do(t, s, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
}

func TestGetLinkPage(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/getlink?url=https%3A%2F%2Fgo.dev", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `href="https://go.dev"`)

	rec = do(t, s, httptest.NewRequest(http.MethodGet, "/getlink?url=javascript%3Aalert(1)", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid URL received.")
}

func TestAnalysis_RequiresSession(t *testing.T) {
	s := newTestServer(t, testConfig())

	for _, path := range []string{"/api/analysis/view", "/api/analysis/export", "/api/analysis/charts"} {
		rec := do(t, s, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestAnalysis_Flow(t *testing.T) {
	s := newTestServer(t, testConfig())
	cookie := login(t, s)

	authed := func(req *http.Request) *httptest.ResponseRecorder {
		req.AddCookie(cookie)
		return do(t, s, req)
	}

	rec := authed(uploadRequest(t, "reviews.csv", "text/csv", reviewsCSV))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var up struct {
		Rows    int                `json:"rows"`
		Options core.FilterOptions `json:"options"`
		Charts  core.Charts        `json:"charts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &up))
	assert.Equal(t, 3, up.Rows)
	assert.Equal(t, []string{"Elektronik", "Fashion"}, up.Options.Kategori)
	assert.Equal(t, 2, up.Charts.SentimentDistribution.Points[0].Count)

	rec = authed(httptest.NewRequest(http.MethodGet, "/api/analysis/view?sentiment=positive&sort=rating&dir=desc", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	view := decode[viewResponse](t, rec)
	require.Len(t, view.Window, 2)
	assert.Equal(t, 5, view.Window[0].Rating)
	assert.Equal(t, "reviews.csv", view.Source)
	assert.Equal(t, "4.00", view.Aggregates.AverageRating)

	rec = authed(httptest.NewRequest(http.MethodGet, "/api/analysis/export", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="sentiment_data.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t,
		"Ulasan,Rating,Kategori,Nama Produk,Sentiment\n\"Bagus sekali\",5,Elektronik,TV,Positive\n\"Lumayan\",3,Fashion,Kaos,Positive",
		rec.Body.String())

	rec = authed(httptest.NewRequest(http.MethodPost, "/api/analysis/reset", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[viewResponse](t, rec).Window, 3)

	rec = authed(httptest.NewRequest(http.MethodGet, "/api/analysis/charts", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	charts := decode[core.Charts](t, rec)
	assert.Equal(t, 1, charts.SentimentDistribution.Points[1].Count)
}

func TestAnalysis_ViewPaging(t *testing.T) {
	s := newTestServer(t, testConfig())
	cookie := login(t, s)

	var b strings.Builder
	b.WriteString("Ulasan,Rating,Kategori,Nama Produk,label")
	for i := range 45 {
		fmt.Fprintf(&b, "\nulasan %d,%d,K,P,%d", i, i%5+1, i%2)
	}
	up := uploadRequest(t, "big.csv", "text/csv", b.String())
	up.AddCookie(cookie)
	require.Equal(t, http.StatusOK, do(t, s, up).Code)

	view := func(query string) viewResponse {
		t.Helper()
		req := httptest.NewRequest(http.MethodGet, "/api/analysis/view"+query, nil)
		req.AddCookie(cookie)
		rec := do(t, s, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		return decode[viewResponse](t, rec)
	}

	steps := []struct {
		query    string
		wantPage int
		wantOf   int
	}{
		{"?page=3", 3, 5},
		{"", 3, 5},
		{"?page=99", 5, 5},
		{"?page=0", 1, 5},
		{"?page=4", 4, 5},
		{"?page=-2", 1, 5},
		{"?page=4", 4, 5},
		{"?page=abc", 4, 5},
		// A filter change lands on page 1 whatever page was asked for.
		{"?sentiment=negative&page=3", 1, 3},
		{"?sentiment=negative&page=3", 3, 3},
		{"?sentiment=negative&sort=rating&page=2", 1, 3},
	}
	for _, st := range steps {
		v := view(st.query)
		assert.Equal(t, st.wantPage, v.Page, "page after %q", st.query)
		assert.Equal(t, st.wantOf, v.TotalPages, "total after %q", st.query)
	}
}

func TestAnalysis_UploadErrors(t *testing.T) {
	s := newTestServer(t, testConfig())
	cookie := login(t, s)

	tests := []struct {
		name       string
		req        *http.Request
		wantStatus int
		wantCode   string
	}{
		{"not a csv", uploadRequest(t, "photo.png", "image/png", "x"), http.StatusUnsupportedMediaType, "FILE002"},
		{"missing columns", uploadRequest(t, "a.csv", "text/csv", "Ulasan,Rating\nx,1"), http.StatusUnprocessableEntity, "DATA001"},
		{"too large", uploadRequest(t, "a.csv", "text/csv", strings.Repeat("x", 1<<17)), http.StatusRequestEntityTooLarge, "FILE001"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.req.AddCookie(cookie)
			rec := do(t, s, tt.req)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.Equal(t, tt.wantCode, decode[ErrorResponse](t, rec).Code)
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/api/analysis/upload", strings.NewReader(""))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	req.AddCookie(cookie)
	assert.Equal(t, http.StatusBadRequest, do(t, s, req).Code)
}

func TestAnalysis_ExportWithoutData(t *testing.T) {
	s := newTestServer(t, testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/analysis/export", nil)
	req.AddCookie(login(t, s))

	rec := do(t, s, req)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "DATA002", decode[ErrorResponse](t, rec).Code)
}

func TestAnalysis_BadCriteria(t *testing.T) {
	s := newTestServer(t, testConfig())
	cookie := login(t, s)

	for _, q := range []string{"sort=price", "sentiment=neutral"} {
		req := httptest.NewRequest(http.MethodGet, "/api/analysis/view?"+q, nil)
		req.AddCookie(cookie)
		rec := do(t, s, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1, Burst: 2}
	s := newTestServer(t, cfg)

	for i := range 2 {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		assert.Equal(t, http.StatusOK, do(t, s, req).Code, "request %d", i)
	}

	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, "RATE001", decode[ErrorResponse](t, rec).Code)

	// Another client has its own bucket.
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.RemoteAddr = "198.51.100.1:1234"
	assert.Equal(t, http.StatusOK, do(t, s, req).Code)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadGateway, statusFor(&core.StageError{Stage: core.StageWrite, Err: github.ErrUnauthorized}))
	assert.Equal(t, http.StatusServiceUnavailable, statusFor(core.ErrTooManyUploads))
	assert.Equal(t, http.StatusGatewayTimeout, statusFor(context.DeadlineExceeded))
	assert.Equal(t, http.StatusInternalServerError, statusFor(io.ErrUnexpectedEOF))
}
