package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tqpictures/studio/internal/auth"
	"github.com/tqpictures/studio/internal/gallery"
	"github.com/tqpictures/studio/internal/handlers"
	"github.com/tqpictures/studio/internal/metrics"
	"github.com/tqpictures/studio/models"
)

// ---- fakes ----

type fakeProfiles struct {
	byID map[string]*models.Profile
}

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{byID: map[string]*models.Profile{}}
}

func (f *fakeProfiles) add(p *models.Profile) { f.byID[p.ID] = p }

func (f *fakeProfiles) Create(_ context.Context, p *models.Profile) error {
	for _, existing := range f.byID {
		if existing.Email == strings.ToLower(p.Email) {
			return gorm.ErrDuplicatedKey
		}
	}
	if p.ID == "" {
		p.ID = fmt.Sprintf("p-%d", len(f.byID)+1)
	}
	p.Email = strings.ToLower(p.Email)
	f.byID[p.ID] = p
	return nil
}

func (f *fakeProfiles) UpsertByEmail(ctx context.Context, p *models.Profile) error {
	for _, existing := range f.byID {
		if existing.Email == strings.ToLower(p.Email) {
			*p = *existing
			return nil
		}
	}
	return f.Create(ctx, p)
}

func (f *fakeProfiles) ByID(_ context.Context, id string) (*models.Profile, error) {
	p, ok := f.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (f *fakeProfiles) ByEmail(_ context.Context, email string) (*models.Profile, error) {
	for _, p := range f.byID {
		if p.Email == strings.ToLower(email) {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeProfiles) ListCustomers(_ context.Context) ([]models.Profile, error) {
	var out []models.Profile
	for _, p := range f.byID {
		if !p.IsAdmin {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeBookings struct {
	rows []models.Booking
}

func (f *fakeBookings) Create(_ context.Context, b *models.Booking) error {
	if b.ID == "" {
		b.ID = fmt.Sprintf("b-%d", len(f.rows)+1)
	}
	f.rows = append(f.rows, *b)
	return nil
}

func (f *fakeBookings) ListForProfile(_ context.Context, profileID string) ([]models.Booking, error) {
	var out []models.Booking
	for i := len(f.rows) - 1; i >= 0; i-- {
		if f.rows[i].ProfileID == profileID {
			out = append(out, f.rows[i])
		}
	}
	return out, nil
}

func (f *fakeBookings) ListRecent(_ context.Context, limit int) ([]models.Booking, error) {
	var out []models.Booking
	for i := len(f.rows) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, f.rows[i])
	}
	return out, nil
}

func (f *fakeBookings) CountPending(_ context.Context) (int64, error) {
	var n int64
	for _, b := range f.rows {
		if b.Status == models.StatusPending {
			n++
		}
	}
	return n, nil
}

type fakeImages struct {
	created     []*models.Image
	assignments map[string][]string
}

func newFakeImages() *fakeImages {
	return &fakeImages{assignments: map[string][]string{}}
}

func (f *fakeImages) CreateWithAssignments(_ context.Context, img *models.Image, profileIDs []string) error {
	img.ID = fmt.Sprintf("img-%d", len(f.created)+1)
	f.created = append(f.created, img)
	f.assignments[img.ID] = append([]string(nil), profileIDs...)
	return nil
}

func (f *fakeImages) ListAssigned(_ context.Context, profileID string) ([]models.Image, error) {
	var out []models.Image
	for _, img := range f.created {
		for _, pid := range f.assignments[img.ID] {
			if pid == profileID {
				out = append(out, *img)
			}
		}
	}
	return out, nil
}

func (f *fakeImages) Count(_ context.Context) (int64, error) {
	return int64(len(f.created)), nil
}

func (f *fakeImages) assignmentCount() int {
	n := 0
	for _, pids := range f.assignments {
		n += len(pids)
	}
	return n
}

type fakeObjects struct {
	uploads      []string
	deletes      []string
	uploadCalls  int
	failUploadAt int
}

func (f *fakeObjects) Upload(_ context.Context, key, _ string, _ io.Reader) error {
	f.uploadCalls++
	if f.failUploadAt != 0 && f.uploadCalls == f.failUploadAt {
		return errors.New("storage unavailable")
	}
	f.uploads = append(f.uploads, key)
	return nil
}

func (f *fakeObjects) Delete(_ context.Context, key string) error {
	f.deletes = append(f.deletes, key)
	return nil
}

func (f *fakeObjects) SignedURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://storage.test/" + key + "?signed=1", nil
}

type memCache map[string]string

func (c memCache) Get(_ context.Context, key string) (string, bool) {
	v, ok := c[key]
	return v, ok
}

func (c memCache) Set(_ context.Context, key, url string, _ time.Duration) { c[key] = url }

// ---- test environment ----

type env struct {
	srv      http.Handler
	profiles *fakeProfiles
	bookings *fakeBookings
	images   *fakeImages
	objects  *fakeObjects

	customer *models.Profile
	admin    *models.Profile
}

const testPassword = "password123"

func newEnv(t *testing.T) *env {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	profiles := newFakeProfiles()
	hash, err := auth.HashPassword(testPassword)
	require.NoError(t, err)
	customer := &models.Profile{ID: "cust-1", Email: "jane@example.com", PasswordHash: hash, FullName: "Jane Doe", Phone: "+1 555 0100"}
	admin := &models.Profile{ID: "admin-1", Email: "studio@example.com", PasswordHash: hash, FullName: "Studio Admin", IsAdmin: true}
	other := &models.Profile{ID: "cust-2", Email: "sam@example.com", PasswordHash: hash, FullName: "Sam Roe"}
	profiles.add(customer)
	profiles.add(admin)
	profiles.add(other)

	bookings := &fakeBookings{}
	images := newFakeImages()
	objects := &fakeObjects{}

	m := metrics.New(prometheus.NewRegistry())
	gal := gallery.New(images, objects, memCache{}, m, logger)
	gal.Thumbnailer = func([]byte) ([]byte, error) { return []byte("thumb"), nil }

	sessions := auth.NewSessions([]byte("0123456789abcdef0123456789abcdef"), false, profiles, logger)

	h, err := handlers.New(handlers.Config{
		JWTSecret: "test-jwt-secret",
		JWTTTL:    time.Hour,
	}, handlers.Deps{
		Profiles: profiles,
		Bookings: bookings,
		Images:   images,
		Gallery:  gal,
		Sessions: sessions,
		Metrics:  m,
		Log:      logger,
	})
	require.NoError(t, err)

	return &env{
		srv:      h.Routes(),
		profiles: profiles,
		bookings: bookings,
		images:   images,
		objects:  objects,
		customer: customer,
		admin:    admin,
	}
}

func (e *env) get(path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	e.srv.ServeHTTP(rec, req)
	return rec
}

func (e *env) postForm(path string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	e.srv.ServeHTTP(rec, req)
	return rec
}

func (e *env) signIn(t *testing.T, email string) *http.Cookie {
	t.Helper()
	rec := e.postForm("/login", url.Values{"email": {email}, "password": {testPassword}}, nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	return sessionCookie(t, rec)
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == "studio_session" {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

// ---- routing & guards ----

func TestUnknownPathRendersHome(t *testing.T) {
	e := newEnv(t)

	home := e.get("/", nil)
	fallback := e.get("/nonexistent", nil)

	assert.Equal(t, http.StatusOK, home.Code)
	assert.Equal(t, http.StatusOK, fallback.Code)
	assert.Contains(t, fallback.Body.String(), "Capture Your Story")
	assert.Equal(t, home.Body.String(), fallback.Body.String())
}

func TestDashboardRedirectsAnonymousToLogin(t *testing.T) {
	e := newEnv(t)
	rec := e.get("/dashboard", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestAdminRouteRedirectsNonAdmin(t *testing.T) {
	e := newEnv(t)
	cookie := e.signIn(t, e.customer.Email)

	rec := e.get("/admin", cookie)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin-login", rec.Header().Get("Location"))
}

func TestDashboardRedirectsAdminToAdmin(t *testing.T) {
	e := newEnv(t)
	cookie := e.signIn(t, e.admin.Email)

	rec := e.get("/dashboard", cookie)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin", rec.Header().Get("Location"))
}

// ---- accounts ----

func TestLoginRejectsBadPassword(t *testing.T) {
	e := newEnv(t)
	rec := e.postForm("/login", url.Values{"email": {e.customer.Email}, "password": {"nope"}}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid email or password")
}

func TestAdminLoginRejectsNonAdminAccount(t *testing.T) {
	e := newEnv(t)
	rec := e.postForm("/admin-login", url.Values{"email": {e.customer.Email}, "password": {testPassword}}, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "does not have admin access")
}

func TestSignupCreatesProfileAndSession(t *testing.T) {
	e := newEnv(t)
	rec := e.postForm("/signup", url.Values{
		"full_name": {"New User"},
		"email":     {"new@example.com"},
		"phone":     {"+1 555 0199"},
		"password":  {"hunter2hunter2"},
	}, nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))

	p, err := e.profiles.ByEmail(context.Background(), "new@example.com")
	require.NoError(t, err)
	assert.False(t, p.IsAdmin)
	assert.True(t, auth.CheckPassword(p.PasswordHash, "hunter2hunter2"))
}

func TestSignupDuplicateEmail(t *testing.T) {
	e := newEnv(t)
	rec := e.postForm("/signup", url.Values{
		"full_name": {"Jane Again"},
		"email":     {e.customer.Email},
		"password":  {"hunter2hunter2"},
	}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "already exists")
}

// ---- booking ----

func bookingValues() url.Values {
	return url.Values{
		"full_name": {"Jane Doe"},
		"email":     {"jane@example.com"},
		"phone":     {"+1 555 0100"},
		"date":      {"2026-10-01"},
		"time":      {"14:30"},
		"reason":    {"Family portrait"},
	}
}

func TestBookingCreatePendingRow(t *testing.T) {
	e := newEnv(t)
	cookie := e.signIn(t, e.customer.Email)

	rec := e.postForm("/booking", bookingValues(), cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, e.bookings.rows, 1)
	b := e.bookings.rows[0]
	assert.Equal(t, e.customer.ID, b.ProfileID)
	assert.Equal(t, models.StatusPending, b.Status)
	assert.Equal(t, "2026-10-01", b.BookingDate)

	body := rec.Body.String()
	assert.Contains(t, body, "Booking submitted successfully")
	assert.Contains(t, body, `content="2;url=/dashboard"`)
}

func TestBookingUnauthenticatedRedirectsWithoutInsert(t *testing.T) {
	e := newEnv(t)

	rec := e.postForm("/booking", bookingValues(), nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	assert.Empty(t, e.bookings.rows)
}

func TestBookingMissingFieldsRejected(t *testing.T) {
	e := newEnv(t)
	cookie := e.signIn(t, e.customer.Email)

	form := bookingValues()
	form.Set("reason", "")
	rec := e.postForm("/booking", form, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, e.bookings.rows)
}

// ---- gallery visibility ----

func TestDashboardListsOnlyAssignedImages(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	require.NoError(t, e.images.CreateWithAssignments(ctx,
		&models.Image{FilePath: "mine.jpg", FileName: "mine.jpg"}, []string{e.customer.ID}))
	require.NoError(t, e.images.CreateWithAssignments(ctx,
		&models.Image{FilePath: "other.jpg", FileName: "other.jpg"}, []string{"cust-2"}))

	cookie := e.signIn(t, e.customer.Email)
	rec := e.get("/dashboard", cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "mine.jpg")
	assert.NotContains(t, body, "other.jpg")
	assert.Contains(t, body, "https://storage.test/mine.jpg")
}

// ---- admin upload ----

func uploadRequest(t *testing.T, files []string, userIDs []string, cookie *http.Cookie) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for _, id := range userIDs {
		require.NoError(t, mw.WriteField("user_ids", id))
	}
	for _, name := range files {
		fw, err := mw.CreateFormFile("images", name)
		require.NoError(t, err)
		_, err = fw.Write([]byte("image-bytes-" + name))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/admin/upload", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.AddCookie(cookie)
	return req
}

func TestAdminUploadCreatesRowsPerFileAndUser(t *testing.T) {
	e := newEnv(t)
	cookie := e.signIn(t, e.admin.Email)

	rec := httptest.NewRecorder()
	e.srv.ServeHTTP(rec, uploadRequest(t, []string{"a.jpg", "b.jpg", "c.jpg"}, []string{"cust-1", "cust-2"}, cookie))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin", rec.Header().Get("Location"))

	assert.Len(t, e.images.created, 3)
	assert.Equal(t, 6, e.images.assignmentCount())

	// the success notice shows on the next dashboard render
	next := e.get("/admin", sessionCookie(t, rec))
	assert.Contains(t, next.Body.String(), "Images uploaded successfully!")
}

func TestAdminUploadPartialFailure(t *testing.T) {
	e := newEnv(t)
	cookie := e.signIn(t, e.admin.Email)
	// fail the third file's original upload (two calls per earlier file)
	e.objects.failUploadAt = 5

	rec := httptest.NewRecorder()
	e.srv.ServeHTTP(rec, uploadRequest(t, []string{"a.jpg", "b.jpg", "c.jpg", "d.jpg"}, []string{"cust-1"}, cookie))
	require.Equal(t, http.StatusSeeOther, rec.Code)

	// files 1-2 stay committed, nothing for files 3..N
	assert.Len(t, e.images.created, 2)
	assert.Equal(t, 2, e.images.assignmentCount())

	// generic notice, no file named
	next := e.get("/admin", sessionCookie(t, rec))
	assert.Contains(t, next.Body.String(), "Failed to upload images")
	assert.NotContains(t, next.Body.String(), "c.jpg")
}

// ---- JSON API ----

func (e *env) token(t *testing.T, email string) string {
	t.Helper()
	payload, _ := json.Marshal(map[string]string{"email": email, "password": testPassword})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/token", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.NotEmpty(t, out.Token)
	return out.Token
}

func TestAPITokenAndMe(t *testing.T) {
	e := newEnv(t)
	token := e.token(t, e.customer.Email)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	e.srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var p models.Profile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, e.customer.Email, p.Email)
}

func TestAPIRejectsMissingToken(t *testing.T) {
	e := newEnv(t)
	rec := e.get("/api/v1/bookings", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAPIImagesAreScopedToSubject(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	require.NoError(t, e.images.CreateWithAssignments(ctx,
		&models.Image{FilePath: "mine.jpg", FileName: "mine.jpg"}, []string{e.customer.ID}))
	require.NoError(t, e.images.CreateWithAssignments(ctx,
		&models.Image{FilePath: "other.jpg", FileName: "other.jpg"}, []string{"cust-2"}))

	token := e.token(t, e.customer.Email)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/images", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	e.srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		Images []struct {
			FileName string `json:"file_name"`
			URL      string `json:"url"`
		} `json:"images"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out.Images, 1)
	assert.Equal(t, "mine.jpg", out.Images[0].FileName)
	assert.Contains(t, out.Images[0].URL, "signed=1")
}
