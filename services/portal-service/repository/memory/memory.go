// Package memory provides in-process repository implementations for tests
// and local runs without backing stores.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"grievance-portal/services/portal-service/models"
	"grievance-portal/services/portal-service/repository"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Users struct {
	mu    sync.RWMutex
	users map[string]models.User
	now   func() time.Time
}

func NewUsers() *Users {
	return &Users{users: map[string]models.User{}, now: time.Now}
}

func (r *Users) Create(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return repository.ErrDuplicate
		}
	}
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	now := r.now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	r.users[u.ID] = *u
	return nil
}

func (r *Users) Save(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u.UpdatedAt = r.now()
	r.users[u.ID] = *u
	return nil
}

func (r *Users) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
	return nil
}

func (r *Users) sorted(match func(u *models.User) bool) []models.User {
	var out []models.User
	for _, u := range r.users {
		u := u
		if match(&u) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (r *Users) first(match func(u *models.User) bool) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	found := r.sorted(match)
	if len(found) == 0 {
		return nil, repository.ErrNotFound
	}
	return &found[0], nil
}

func (r *Users) FindByID(_ context.Context, id string) (*models.User, error) {
	return r.first(func(u *models.User) bool { return u.ID == id })
}

func (r *Users) FindByIDs(_ context.Context, ids []string) ([]models.User, error) {
	want := map[string]bool{}
	for _, id := range ids {
		want[id] = true
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sorted(func(u *models.User) bool { return want[u.ID] }), nil
}

func (r *Users) FindByEmail(_ context.Context, email string) (*models.User, error) {
	return r.first(func(u *models.User) bool { return strings.EqualFold(u.Email, email) })
}

func (r *Users) FindByEmailAndType(_ context.Context, email, accountType string) (*models.User, error) {
	return r.first(func(u *models.User) bool {
		return strings.EqualFold(u.Email, email) && u.AccountType == accountType
	})
}

func (r *Users) FindByResetToken(_ context.Context, digest string, now time.Time) (*models.User, error) {
	return r.first(func(u *models.User) bool {
		return u.ResetToken != nil && *u.ResetToken == digest &&
			u.ResetPasswordExpires != nil && u.ResetPasswordExpires.After(now)
	})
}

func (r *Users) FindActiveNodalOfficer(_ context.Context, departmentID string) (*models.User, error) {
	return r.first(func(u *models.User) bool {
		return u.AccountType == models.AccountNodal && u.Active && u.Department() == departmentID
	})
}

func (r *Users) ListActiveByType(_ context.Context, accountType string) ([]models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sorted(func(u *models.User) bool { return u.AccountType == accountType && u.Active }), nil
}

func (r *Users) List(_ context.Context, f repository.UserFilter, offset, limit int) ([]models.User, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	search := strings.ToLower(strings.TrimSpace(f.Search))
	found := r.sorted(func(u *models.User) bool {
		if f.AccountType != "" && u.AccountType != f.AccountType {
			return false
		}
		if f.Active != nil && u.Active != *f.Active {
			return false
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(u.FirstName), search) &&
			!strings.Contains(strings.ToLower(u.LastName), search) &&
			!strings.Contains(strings.ToLower(u.Email), search) {
			return false
		}
		return true
	})
	// newest first
	for i, j := 0, len(found)-1; i < j; i, j = i+1, j-1 {
		found[i], found[j] = found[j], found[i]
	}
	return page(found, offset, limit), int64(len(found)), nil
}

type Departments struct {
	mu    sync.RWMutex
	depts map[string]models.Department
}

func NewDepartments() *Departments {
	return &Departments{depts: map[string]models.Department{}}
}

func (r *Departments) Create(_ context.Context, d *models.Department) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.depts {
		if existing.Name == d.Name {
			return repository.ErrDuplicate
		}
	}
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	now := time.Now()
	d.CreatedAt, d.UpdatedAt = now, now
	r.depts[d.ID] = *d
	return nil
}

func (r *Departments) Save(_ context.Context, d *models.Department) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d.UpdatedAt = time.Now()
	r.depts[d.ID] = *d
	return nil
}

func (r *Departments) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.depts, id)
	return nil
}

func (r *Departments) FindByID(_ context.Context, id string) (*models.Department, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.depts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &d, nil
}

func (r *Departments) FindByName(_ context.Context, name string) (*models.Department, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, d := range r.depts {
		if d.Name == name {
			d := d
			return &d, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *Departments) FindByIDs(_ context.Context, ids []string) ([]models.Department, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []models.Department
	for _, id := range ids {
		if d, ok := r.depts[id]; ok {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *Departments) List(_ context.Context) ([]models.Department, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Department, 0, len(r.depts))
	for _, d := range r.depts {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type Grievances struct {
	mu   sync.RWMutex
	docs map[primitive.ObjectID]models.Grievance
}

func NewGrievances() *Grievances {
	return &Grievances{docs: map[primitive.ObjectID]models.Grievance{}}
}

func cloneGrievance(g models.Grievance) models.Grievance {
	g.Comments = append([]models.Comment(nil), g.Comments...)
	g.Attachments = append([]models.Attachment(nil), g.Attachments...)
	return g
}

func (r *Grievances) Insert(_ context.Context, g *models.Grievance) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if g.ID.IsZero() {
		g.ID = primitive.NewObjectID()
	}
	r.docs[g.ID] = cloneGrievance(*g)
	return nil
}

func (r *Grievances) FindByID(_ context.Context, id primitive.ObjectID) (*models.Grievance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.docs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	g = cloneGrievance(g)
	return &g, nil
}

func (r *Grievances) Replace(_ context.Context, g *models.Grievance) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[g.ID]; !ok {
		return repository.ErrNotFound
	}
	r.docs[g.ID] = cloneGrievance(*g)
	return nil
}

func (r *Grievances) PushComment(_ context.Context, id primitive.ObjectID, c models.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.docs[id]
	if !ok {
		return repository.ErrNotFound
	}
	g = cloneGrievance(g)
	g.Comments = append(g.Comments, c)
	g.UpdatedAt = c.CreatedAt
	r.docs[id] = g
	return nil
}

func (r *Grievances) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.docs, id)
	return nil
}

func (r *Grievances) matching(f repository.GrievanceFilter) []models.Grievance {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []models.Grievance
	for _, g := range r.docs {
		g := g
		if f.Matches(&g) {
			out = append(out, cloneGrievance(g))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.Hex() > out[j].ID.Hex()
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (r *Grievances) Find(_ context.Context, f repository.GrievanceFilter, skip int64, limit int) ([]models.Grievance, int64, error) {
	found := r.matching(f)
	return page(found, int(skip), limit), int64(len(found)), nil
}

func (r *Grievances) Count(_ context.Context, f repository.GrievanceFilter) (int64, error) {
	return int64(len(r.matching(f))), nil
}

func (r *Grievances) CountByStatus(_ context.Context, f repository.GrievanceFilter) (map[string]int64, error) {
	counts := map[string]int64{}
	for _, g := range r.matching(f) {
		counts[g.Status]++
	}
	return counts, nil
}

type WorkProgress struct {
	mu      sync.RWMutex
	entries map[primitive.ObjectID]models.WorkProgress
}

func NewWorkProgress() *WorkProgress {
	return &WorkProgress{entries: map[primitive.ObjectID]models.WorkProgress{}}
}

func (r *WorkProgress) UpsertForGrievance(_ context.Context, grievanceID primitive.ObjectID, officerID string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, wp := range r.entries {
		if wp.GrievanceID == grievanceID {
			wp.AssignedTo = officerID
			wp.Status = models.WorkPending
			wp.StartDate = now
			wp.CompletionDate = nil
			wp.UpdatedAt = now
			r.entries[id] = wp
			return nil
		}
	}
	id := primitive.NewObjectID()
	r.entries[id] = models.WorkProgress{
		ID:          id,
		GrievanceID: grievanceID,
		AssignedTo:  officerID,
		Status:      models.WorkPending,
		StartDate:   now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return nil
}

func (r *WorkProgress) FindByID(_ context.Context, id primitive.ObjectID) (*models.WorkProgress, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	wp, ok := r.entries[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &wp, nil
}

func (r *WorkProgress) Replace(_ context.Context, wp *models.WorkProgress) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[wp.ID]; !ok {
		return repository.ErrNotFound
	}
	r.entries[wp.ID] = *wp
	return nil
}

func (r *WorkProgress) Find(_ context.Context, f repository.WorkProgressFilter, skip int64, limit int) ([]models.WorkProgress, int64, error) {
	r.mu.RLock()
	var found []models.WorkProgress
	for _, wp := range r.entries {
		wp := wp
		if f.Matches(&wp) {
			found = append(found, wp)
		}
	}
	r.mu.RUnlock()

	sort.Slice(found, func(i, j int) bool { return found[i].CreatedAt.After(found[j].CreatedAt) })
	return page(found, int(skip), limit), int64(len(found)), nil
}

type OTPs struct {
	mu   sync.Mutex
	recs map[string]models.OTPRecord
}

func NewOTPs() *OTPs {
	return &OTPs{recs: map[string]models.OTPRecord{}}
}

func (s *OTPs) Save(_ context.Context, rec *models.OTPRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs[strings.ToLower(rec.Email)] = *rec
	return nil
}

func (s *OTPs) Latest(_ context.Context, email string) (*models.OTPRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.recs[strings.ToLower(email)]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (s *OTPs) DeleteAll(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.recs, strings.ToLower(email))
	return nil
}

type Denylist struct {
	mu      sync.Mutex
	revoked map[string]time.Time
}

func NewDenylist() *Denylist {
	return &Denylist{revoked: map[string]time.Time{}}
}

func (d *Denylist) Revoke(_ context.Context, jti string, expiresAt time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.revoked[jti] = expiresAt
	return nil
}

func (d *Denylist) IsRevoked(_ context.Context, jti string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.revoked[jti]
	return ok, nil
}

func page[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}

var (
	_ repository.UserRepository         = (*Users)(nil)
	_ repository.DepartmentRepository   = (*Departments)(nil)
	_ repository.GrievanceRepository    = (*Grievances)(nil)
	_ repository.WorkProgressRepository = (*WorkProgress)(nil)
	_ repository.OTPStore               = (*OTPs)(nil)
	_ repository.TokenDenylist          = (*Denylist)(nil)
)
