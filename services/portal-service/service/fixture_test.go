package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"grievance-portal/pkg/events"
	"grievance-portal/pkg/security"
	"grievance-portal/services/portal-service/models"
	"grievance-portal/services/portal-service/notification"
	"grievance-portal/services/portal-service/repository/memory"
	"grievance-portal/services/portal-service/workflow"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type recordingDispatcher struct {
	mu   sync.Mutex
	sent []events.Notification
}

func (d *recordingDispatcher) Dispatch(_ context.Context, n events.Notification) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, n)
}

func (d *recordingDispatcher) ofType(kind string) []events.Notification {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []events.Notification
	for _, n := range d.sent {
		if n.Type == kind {
			out = append(out, n)
		}
	}
	return out
}

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) Send(_ context.Context, to []string, subject, html string) error {
	return m.Called(to, subject, html).Error(0)
}

type memoryObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
	failOn  string
}

func (s *memoryObjects) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failOn != "" && bytes.Contains([]byte(key), []byte(s.failOn)) {
		return "", errors.New("storage unavailable")
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.objects[key] = b
	return "http://media.local/" + key, nil
}

func (s *memoryObjects) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

var fixedNow = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

type fixture struct {
	deps       Deps
	users      *memory.Users
	depts      *memory.Departments
	grievances *memory.Grievances
	progress   *memory.WorkProgress
	otps       *memory.OTPs
	denylist   *memory.Denylist
	objects    *memoryObjects
	mailer     *mockMailer
	dispatched *recordingDispatcher
	clock      *time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tpl, err := notification.NewTemplates("http://portal.local")
	require.NoError(t, err)

	now := fixedNow
	f := &fixture{
		users:      memory.NewUsers(),
		depts:      memory.NewDepartments(),
		grievances: memory.NewGrievances(),
		progress:   memory.NewWorkProgress(),
		otps:       memory.NewOTPs(),
		denylist:   memory.NewDenylist(),
		objects:    &memoryObjects{objects: map[string][]byte{}},
		mailer:     new(mockMailer),
		dispatched: &recordingDispatcher{},
		clock:      &now,
	}
	f.deps = Deps{
		Users:        f.users,
		Departments:  f.depts,
		Grievances:   f.grievances,
		WorkProgress: f.progress,
		OTPs:         f.otps,
		Denylist:     f.denylist,
		Objects:      f.objects,
		Mailer:       f.mailer,
		Dispatcher:   f.dispatched,
		Templates:    tpl,
		Tokens:       security.NewTokenManager("test-secret", 30*24*time.Hour),
		Now:          func() time.Time { return *f.clock },
	}
	return f
}

func (f *fixture) advance(d time.Duration) {
	*f.clock = f.clock.Add(d)
}

func (f *fixture) department(t *testing.T, name string) *models.Department {
	t.Helper()
	d := &models.Department{Name: name}
	require.NoError(t, f.depts.Create(context.Background(), d))
	return d
}

func (f *fixture) user(t *testing.T, first, email, accountType, password string, dept *models.Department) (*models.User, workflow.Actor) {
	t.Helper()
	hash, err := security.HashPassword(password)
	require.NoError(t, err)

	u := &models.User{FirstName: first, LastName: "Test", Email: email, Password: hash, AccountType: accountType, Active: true, CreatedAt: *f.clock}
	if dept != nil {
		u.DepartmentID = &dept.ID
	}
	require.NoError(t, f.users.Create(context.Background(), u))
	*f.clock = f.clock.Add(time.Second)
	return u, actorOf(u)
}

func actorOf(u *models.User) workflow.Actor {
	return workflow.Actor{
		ID:           u.ID,
		AccountType:  u.AccountType,
		DepartmentID: u.Department(),
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Email:        u.Email,
	}
}

func upload(name, contentType string, size int) Upload {
	data := bytes.Repeat([]byte("x"), size)
	return Upload{
		Filename:    name,
		ContentType: contentType,
		Size:        int64(size),
		Open:        func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(data)), nil },
	}
}

func strp(s string) *string { return &s }
func intp(n int) *int       { return &n }
func boolp(b bool) *bool    { return &b }
