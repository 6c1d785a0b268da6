package web

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/contactsel/internal/config"
	"github.com/JonMunkholm/contactsel/internal/core"
	"github.com/JonMunkholm/contactsel/internal/schema"
	"github.com/JonMunkholm/contactsel/internal/session"
	"github.com/JonMunkholm/contactsel/internal/sheet"
)

const contactsCSV = "Name,First Name,Last Name,Phone 1 - Value,Phone 2 - Value\n" +
	"Ada Lovelace,,,555-0001,\n" +
	",Grace,Hopper,,555-0002\n" +
	",,,,555-0003\n"

type testEnv struct {
	t      *testing.T
	cfg    *config.Config
	store  *session.Store
	server *Server
	cookie *http.Cookie
}

func newTestEnv(t *testing.T, mutate func(*config.Config), decoder session.Decoder) *testEnv {
	t.Helper()

	cfg, err := config.LoadFrom(func(string) string { return "" })
	require.NoError(t, err)
	cfg.Rate.Enabled = false
	if mutate != nil {
		mutate(cfg)
	}

	codec := sheet.New(cfg.Upload.MaxFileSize)
	if decoder == nil {
		decoder = codec
	}
	store := session.NewStore(decoder, session.Options{DecodeTimeout: 5 * time.Second})
	srv, err := NewServer(store, codec, cfg)
	require.NoError(t, err)

	t.Cleanup(func() {
		srv.Close()
		store.Close()
	})
	return &testEnv{t: t, cfg: cfg, store: store, server: srv}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	e.t.Helper()
	if e.cookie != nil {
		req.AddCookie(e.cookie)
	}
	rec := httptest.NewRecorder()
	e.server.Router().ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		if c.Name == e.cfg.Session.CookieName {
			e.cookie = c
		}
	}
	return rec
}

func (e *testEnv) get(path string) *httptest.ResponseRecorder {
	return e.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (e *testEnv) postForm(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return e.do(req)
}

func (e *testEnv) postJSON(path string, body any) *httptest.ResponseRecorder {
	var r io.Reader = bytes.NewReader(nil)
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(e.t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(http.MethodPost, path, r)
	req.Header.Set("Content-Type", "application/json")
	return e.do(req)
}

func (e *testEnv) upload(path, filename string, data []byte) *httptest.ResponseRecorder {
	e.t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if filename != "" {
		fw, err := w.CreateFormFile("file", filename)
		require.NoError(e.t, err)
		_, err = fw.Write(data)
		require.NoError(e.t, err)
	} else {
		require.NoError(e.t, w.WriteField("note", "no file"))
	}
	require.NoError(e.t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return e.do(req)
}

func (e *testEnv) session() *session.Session {
	e.t.Helper()
	require.NotNil(e.t, e.cookie, "no session cookie yet")
	sess, err := e.store.Get(e.cookie.Value)
	require.NoError(e.t, err)
	return sess
}

func (e *testEnv) waitDecode() {
	e.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(e.t, e.session().Wait(ctx))
}

func (e *testEnv) importContacts() string {
	e.t.Helper()
	rec := e.upload("/upload", "contacts.csv", []byte(contactsCSV))
	require.Equal(e.t, http.StatusSeeOther, rec.Code)
	e.waitDecode()
	return e.session().State().ImportID()
}

func (e *testEnv) state() StateResponse {
	e.t.Helper()
	rec := e.get("/api/state")
	require.Equal(e.t, http.StatusOK, rec.Code)
	var st StateResponse
	require.NoError(e.t, json.Unmarshal(rec.Body.Bytes(), &st))
	return st
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp
}

func contactIDs(list []ContactJSON) []int {
	ids := make([]int, len(list))
	for i, c := range list {
		ids[i] = c.ID
	}
	return ids
}

func TestPageEmptySession(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	rec := env.get("/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()

	assert.Contains(t, body, "<h1>Contact Selector</h1>")
	assert.NotContains(t, body, "Selected Contacts:")
	require.NotNil(t, env.cookie)
	assert.True(t, env.cookie.HttpOnly)
	assert.Equal(t, 1, env.store.Len())
}

func TestUploadSelectExportFlow(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	importID := env.importContacts()

	page := env.get("/").Body.String()
	assert.Contains(t, page, "Selected Contacts: 0 / 3")
	assert.Contains(t, page, "Ada Lovelace - 555-0001 - N/A")
	assert.Contains(t, page, "Grace Hopper - N/A - 555-0002")
	assert.Contains(t, page, "Unknown - N/A - 555-0003")
	assert.Contains(t, page, `class="export-button" disabled>`)

	for _, id := range []string{"2", "0"} {
		rec := env.postForm("/contacts/"+id+"/select", url.Values{"import": {importID}})
		require.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/", rec.Header().Get("Location"))
	}

	page = env.get("/").Body.String()
	assert.Contains(t, page, "Selected Contacts: 2 / 3")
	assert.Contains(t, page, `<button type="submit" class="export-button">`)

	rec := env.get("/export")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="selected_contacts.xlsx"`, rec.Header().Get("Content-Disposition"))

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(schema.ExportSheetName)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Name", "Phone 1 - Value", "Phone 2 - Value"},
		{"Unknown", "N/A", "555-0003"},
		{"Ada Lovelace", "555-0001", "N/A"},
	}, rows)
}

func TestToggleStaleImport(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	env.importContacts()

	rec := env.postForm("/contacts/0/select", url.Values{"import": {"not-the-current-import"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code, "browsers are sent back to the page")
	assert.Equal(t, 0, env.state().SelectedCount)

	rec = env.postJSON("/api/contacts/0/select", map[string]string{"import": "not-the-current-import"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "SEL002", decodeError(t, rec).Code)
}

func TestAPISelectDeselect(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	env.importContacts()

	rec := env.postJSON("/api/contacts/1/select", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var st StateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, 1, st.SelectedCount)
	assert.Equal(t, []int{0, 2}, contactIDs(st.Unselected))
	assert.True(t, st.CanExport)

	rec = env.postJSON("/api/contacts/1/select", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "already selected")
	assert.Equal(t, "SEL001", decodeError(t, rec).Code)

	rec = env.postJSON("/api/contacts/1/deselect", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	st = env.state()
	assert.Equal(t, 0, st.SelectedCount)
	assert.Equal(t, []int{0, 2, 1}, contactIDs(st.Unselected), "deselected contact goes to the end")

	rec = env.postJSON("/api/contacts/abc/select", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSearchQuery(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	env.importContacts()

	page := env.get("/?q=ADA").Body.String()
	assert.Contains(t, page, "Ada Lovelace")
	assert.NotContains(t, page, "Grace Hopper")
	assert.Contains(t, page, "Selected Contacts: 0 / 3", "counter ignores the filter")

	page = env.get("/").Body.String()
	assert.Contains(t, page, `value="ADA"`, "query persists in the session")

	page = env.get("/?q=").Body.String()
	assert.Contains(t, page, "Grace Hopper")

	rec := env.postJSON("/api/query", map[string]string{"query": "0002"})
	require.Equal(t, http.StatusOK, rec.Code)
	st := env.state()
	assert.Equal(t, "0002", st.Query)
	assert.Equal(t, []int{1}, contactIDs(st.Unselected))
	assert.Equal(t, 3, st.UnselectedCount)
}

func TestSelectedListIgnoresQuery(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	env.importContacts()

	env.postJSON("/api/contacts/1/select", nil)
	env.postJSON("/api/query", map[string]string{"query": "ada"})

	st := env.state()
	assert.Equal(t, []int{0}, contactIDs(st.Unselected))
	assert.Equal(t, []int{1}, contactIDs(st.Selected))
}

func TestReuploadResetsSelection(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	first := env.importContacts()
	env.postJSON("/api/contacts/0/select", nil)

	second := env.importContacts()
	assert.NotEqual(t, first, second)

	st := env.state()
	assert.Equal(t, 0, st.SelectedCount)
	assert.Equal(t, 3, st.Total)
}

func TestExportNothingSelected(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	env.importContacts()

	rec := env.get("/export")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "Select at least one contact to export")

	rec = env.get("/api/export")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "SEL003", decodeError(t, rec).Code)
}

func TestUploadWhilePending(t *testing.T) {
	release := make(chan struct{})
	blocking := session.DecoderFunc(func(ctx context.Context, _ string, _ []byte) ([]core.Row, error) {
		select {
		case <-release:
		case <-ctx.Done():
		}
		return []core.Row{{"Name": "Late"}}, nil
	})
	env := newTestEnv(t, nil, blocking)

	rec := env.upload("/upload", "a.csv", []byte("Name\nA\n"))
	require.Equal(t, http.StatusSeeOther, rec.Code)

	page := env.get("/").Body.String()
	assert.Contains(t, page, `<meta http-equiv="refresh"`)
	assert.Contains(t, page, "Reading a.csv...")

	rec = env.upload("/api/upload", "b.csv", []byte("Name\nB\n"))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "UPL003", decodeError(t, rec).Code)

	close(release)
	env.waitDecode()
	assert.Equal(t, 1, env.state().Total)
}

func TestUploadErrors(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		data     []byte
		status   int
		code     string
	}{
		{"no file", "", nil, http.StatusBadRequest, "FILE004"},
		{"over size limit", "big.csv", bytes.Repeat([]byte("x"), 64), http.StatusRequestEntityTooLarge, "FILE001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, func(c *config.Config) { c.Upload.MaxFileSize = 32 }, nil)

			rec := env.upload("/api/upload", tt.filename, tt.data)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decodeError(t, rec).Code)
		})
	}
}

func TestUnreadableUploadKeepsContacts(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	importID := env.importContacts()

	rec := env.upload("/upload", "notes.pdf", []byte("%PDF-1.4"))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	env.waitDecode()

	st := env.state()
	assert.Equal(t, importID, st.ImportID)
	assert.Equal(t, 3, st.Total)
	require.NotNil(t, st.LastError)
	assert.Equal(t, "FILE003", st.LastError.Code)

	page := env.get("/").Body.String()
	assert.NotContains(t, page, "FILE003", "decode failures stay off the page")
}

func TestUploadAcceptedJSON(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	rec := env.upload("/api/upload", "contacts.csv", []byte(contactsCSV))
	require.Equal(t, http.StatusAccepted, rec.Code)
	env.waitDecode()
	assert.Equal(t, 3, env.state().Total)
}

func TestExpiredCookieStartsNewSession(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	env.cookie = &http.Cookie{Name: env.cfg.Session.CookieName, Value: "gone"}

	rec := env.get("/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEqual(t, "gone", env.cookie.Value)
}

func TestRateLimit(t *testing.T) {
	env := newTestEnv(t, func(c *config.Config) {
		c.Rate.Enabled = true
		c.Rate.RequestsPerMinute = 2
	}, nil)

	assert.Equal(t, http.StatusOK, env.get("/healthz").Code)
	assert.Equal(t, http.StatusOK, env.get("/healthz").Code)

	rec := env.get("/api/state")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Equal(t, "RATE001", decodeError(t, rec).Code)
}

func TestAPIKeyRequired(t *testing.T) {
	env := newTestEnv(t, func(c *config.Config) {
		c.Security.RequireAPIKey = true
		c.Security.APIKeys = []string{"secret"}
	}, nil)

	assert.Equal(t, http.StatusUnauthorized, env.get("/api/state").Code)
	assert.Equal(t, http.StatusOK, env.get("/").Code, "the page itself is open")

	req := httptest.NewRequest(http.MethodGet, "/api/state", nil)
	req.Header.Set("X-API-Key", "secret")
	assert.Equal(t, http.StatusOK, env.do(req).Code)
}

func TestSecurityHeaders(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	rec := env.get("/healthz")
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "default-src 'self'")
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	env = newTestEnv(t, func(c *config.Config) { c.Security.EnableCSP = false }, nil)
	rec = env.get("/healthz")
	assert.Empty(t, rec.Header().Get("Content-Security-Policy"))
}

func TestStaticAssets(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	for _, path := range []string{"/static/app.js", "/static/app.css"} {
		rec := env.get(path)
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.NotEmpty(t, rec.Body.Len(), path)
	}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	rec := env.get("/healthz")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}
