package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sync"
	"testing"
	"time"

	"grievance-portal/pkg/events"
	"grievance-portal/pkg/middleware"
	"grievance-portal/pkg/security"
	"grievance-portal/services/portal-service/models"
	"grievance-portal/services/portal-service/notification"
	"grievance-portal/services/portal-service/repository/memory"
	"grievance-portal/services/portal-service/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type discardDispatcher struct{}

func (discardDispatcher) Dispatch(context.Context, events.Notification) {}

type bucket struct {
	mu   sync.Mutex
	keys []string
}

func (b *bucket) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) (string, error) {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.keys = append(b.keys, key)
	return "http://media.local/" + key, nil
}

func (b *bucket) Delete(context.Context, string) error { return nil }

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type server struct {
	t       *testing.T
	router  *gin.Engine
	users   *memory.Users
	depts   *memory.Departments
	objects *bucket
}

func newServer(t *testing.T) *server {
	t.Helper()
	tpl, err := notification.NewTemplates("http://portal.local")
	require.NoError(t, err)

	s := &server{
		t:       t,
		users:   memory.NewUsers(),
		depts:   memory.NewDepartments(),
		objects: &bucket{},
	}
	denylist := memory.NewDenylist()
	deps := service.Deps{
		Users:        s.users,
		Departments:  s.depts,
		Grievances:   memory.NewGrievances(),
		WorkProgress: memory.NewWorkProgress(),
		OTPs:         memory.NewOTPs(),
		Denylist:     denylist,
		Objects:      s.objects,
		Dispatcher:   discardDispatcher{},
		Templates:    tpl,
		Tokens:       security.NewTokenManager("test-secret", time.Hour),
	}

	h := New(deps)
	authn := middleware.NewAuthenticator(deps.Tokens, denylist, h.PrincipalLoader())
	s.router = NewRouter(h, authn, middleware.NewMetrics("portal-test"), false)
	return s
}

func (s *server) account(first, email, accountType string, dept *models.Department) *models.User {
	s.t.Helper()
	hash, err := security.HashPassword("secret1")
	require.NoError(s.t, err)
	u := &models.User{FirstName: first, LastName: "Test", Email: email, Password: hash, AccountType: accountType, Active: true}
	if dept != nil {
		u.DepartmentID = &dept.ID
	}
	require.NoError(s.t, s.users.Create(context.Background(), u))
	return u
}

func (s *server) department(name string) *models.Department {
	s.t.Helper()
	d := &models.Department{Name: name}
	require.NoError(s.t, s.depts.Create(context.Background(), d))
	return d
}

func (s *server) do(req *http.Request, token string) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var body envelope
	if w.Header().Get("Content-Type") != "" && bytes.HasPrefix(w.Body.Bytes(), []byte("{")) {
		require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &body))
	}
	return w, body
}

func (s *server) sendJSON(method, path, token string, payload interface{}) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(s.t, err)
		body = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	return s.do(req, token)
}

func (s *server) login(email, accountType string) string {
	s.t.Helper()
	w, body := s.sendJSON(http.MethodPost, "/api/auth/login", "", LoginPayload{Email: email, Password: "secret1", AccountType: accountType})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	var res struct {
		Token string `json:"token"`
	}
	require.NoError(s.t, json.Unmarshal(body.Data, &res))
	return res.Token
}

func multipartGrievance(t *testing.T, fields map[string]string, files map[string]string) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for name, contentType := range files {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", `form-data; name="attachments"; filename="`+name+`"`)
		h.Set("Content-Type", contentType)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write([]byte("binary"))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestHealth(t *testing.T) {
	s := newServer(t)
	w, _ := s.sendJSON(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	s := newServer(t)
	w, body := s.sendJSON(http.MethodGet, "/api/grievances", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "error", body.Status)

	w, _ = s.sendJSON(http.MethodGet, "/api/departments", "", nil)
	assert.Equal(t, http.StatusOK, w.Code, "departments are public")
}

func TestLoginRejectsWrongAccountType(t *testing.T) {
	s := newServer(t)
	s.account("Asha", "asha@example.com", models.AccountCitizen, nil)

	w, body := s.sendJSON(http.MethodPost, "/api/auth/login", "", LoginPayload{Email: "asha@example.com", Password: "secret1", AccountType: models.AccountDM})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid email, password or account type", body.Message)
}

func TestGrievanceFlowOverHTTP(t *testing.T) {
	s := newServer(t)
	roads := s.department("Public Works")
	s.account("Asha", "asha@example.com", models.AccountCitizen, nil)
	s.account("Dev", "dm@example.com", models.AccountDM, nil)
	officer := s.account("Ravi", "ravi@example.com", models.AccountNodal, roads)

	citizen := s.login("asha@example.com", models.AccountCitizen)
	dm := s.login("dm@example.com", models.AccountDM)
	nodal := s.login("ravi@example.com", models.AccountNodal)

	form, contentType := multipartGrievance(t, map[string]string{
		"title": "Pothole", "description": "Deep pothole", "category": "Roads", "department": roads.ID,
		"addressText": "MG Road, near bus stop",
	}, map[string]string{"road.jpg": "image/jpeg"})
	req := httptest.NewRequest(http.MethodPost, "/api/grievances", form)
	req.Header.Set("Content-Type", contentType)
	w, body := s.do(req, citizen)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created models.GrievanceView
	require.NoError(t, json.Unmarshal(body.Data, &created))
	assert.Equal(t, models.StatusSubmitted, created.Status)
	assert.Nil(t, created.AssignedTo)
	assert.Equal(t, "MG Road, near bus stop", created.Location.AddressText)
	require.Len(t, created.Attachments, 1)
	assert.Len(t, s.objects.keys, 1)

	w, _ = s.sendJSON(http.MethodGet, "/api/grievances/unassigned", citizen, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, body = s.sendJSON(http.MethodGet, "/api/grievances/unassigned", dm, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var queue models.GrievancePage
	require.NoError(t, json.Unmarshal(body.Data, &queue))
	assert.EqualValues(t, 1, queue.Total)

	w, body = s.sendJSON(http.MethodPut, "/api/grievances/"+created.ID+"/assign", dm, map[string]string{"department": roads.ID, "message": "please fix"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var assigned models.GrievanceView
	require.NoError(t, json.Unmarshal(body.Data, &assigned))
	assert.Equal(t, officer.ID, assigned.AssignedTo.ID)

	w, body = s.sendJSON(http.MethodGet, "/api/grievances/stats/dashboard", nodal, nil)
	require.Equal(t, http.StatusOK, w.Code, "stats is not captured by /:id")
	var stats models.GrievanceStats
	require.NoError(t, json.Unmarshal(body.Data, &stats))
	assert.EqualValues(t, 1, stats.Assigned)

	w, _ = s.sendJSON(http.MethodPut, "/api/grievances/"+created.ID, nodal, map[string]string{"status": models.StatusResolved, "note": "fixed"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, body = s.sendJSON(http.MethodPut, "/api/grievances/"+created.ID, citizen, map[string]int{"feedbackRating": 5})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var final models.GrievanceView
	require.NoError(t, json.Unmarshal(body.Data, &final))
	assert.Equal(t, models.StatusResolved, final.Status)
	require.NotNil(t, final.FeedbackRating)
	assert.Equal(t, 5, *final.FeedbackRating)
	assert.NotNil(t, final.ResolvedAt)

	w, body = s.sendJSON(http.MethodGet, "/api/grievances/not-an-id", dm, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Grievance not found", body.Message)
}

func TestPasswordBodies(t *testing.T) {
	s := newServer(t)
	s.account("Asha", "asha@example.com", models.AccountCitizen, nil)
	citizen := s.login("asha@example.com", models.AccountCitizen)

	w, body := s.sendJSON(http.MethodPut, "/api/auth/change-password", citizen, map[string]string{"oldPassword": "secret1", "newPassword": "secret2"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w, _ = s.sendJSON(http.MethodPost, "/api/auth/login", "", LoginPayload{Email: "asha@example.com", Password: "secret2", AccountType: models.AccountCitizen})
	assert.Equal(t, http.StatusOK, w.Code)

	w, body = s.sendJSON(http.MethodPut, "/api/auth/reset-password/deadbeef", "", map[string]string{"newPassword": "secret3", "confirmPassword": "secret3"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid or expired token", body.Message, "the body is read and only the token is rejected")
}

func TestWorkProgressIsStaffOnly(t *testing.T) {
	s := newServer(t)
	s.account("Asha", "asha@example.com", models.AccountCitizen, nil)
	citizen := s.login("asha@example.com", models.AccountCitizen)

	w, _ := s.sendJSON(http.MethodGet, "/api/work-progress", citizen, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestLogoutInvalidatesToken(t *testing.T) {
	s := newServer(t)
	s.account("Asha", "asha@example.com", models.AccountCitizen, nil)
	token := s.login("asha@example.com", models.AccountCitizen)

	w, _ := s.sendJSON(http.MethodPost, "/api/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, body := s.sendJSON(http.MethodGet, "/api/grievances", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Token has been invalidated (logged out)", body.Message)
}

func TestDeactivatedAccountIsLockedOut(t *testing.T) {
	s := newServer(t)
	s.account("Dev", "dm@example.com", models.AccountDM, nil)
	asha := s.account("Asha", "asha@example.com", models.AccountCitizen, nil)
	dm := s.login("dm@example.com", models.AccountDM)
	citizen := s.login("asha@example.com", models.AccountCitizen)

	w, _ := s.sendJSON(http.MethodPut, "/api/users/"+asha.ID+"/status", dm, map[string]bool{"active": false})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, body := s.sendJSON(http.MethodGet, "/api/grievances", citizen, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Account is inactive. Please contact support.", body.Message)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newServer(t)
	s.sendJSON(http.MethodGet, "/health", "", nil)

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `http_requests_total{method="GET",path="/health",service="portal-test",status="200"} 1`)
}
