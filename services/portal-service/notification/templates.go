package notification

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"grievance-portal/pkg/events"
	"grievance-portal/services/portal-service/models"

	"github.com/google/uuid"
)

//go:embed templates/*.html
var templateFS embed.FS

// Templates renders notification emails. Links point at the frontend.
type Templates struct {
	tmpl        *template.Template
	frontendURL string
	now         func() time.Time
}

func NewTemplates(frontendURL string) (*Templates, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse email templates: %w", err)
	}
	return &Templates{
		tmpl:        tmpl,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		now:         time.Now,
	}, nil
}

func (t *Templates) link(path string) string {
	return t.frontendURL + path
}

func (t *Templates) render(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := t.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return buf.String(), nil
}

func (t *Templates) event(kind, name, subject string, data interface{}, to []models.User) (events.Notification, error) {
	html, err := t.render(name, data)
	if err != nil {
		return events.Notification{}, err
	}
	n := events.Notification{
		ID:        uuid.New().String(),
		Type:      kind,
		Subject:   subject,
		HTML:      html,
		CreatedAt: t.now().UTC(),
	}
	for _, u := range to {
		n.Recipients = append(n.Recipients, u.Email)
		n.UserIDs = append(n.UserIDs, u.ID)
	}
	return n, nil
}

func forGrievance(n events.Notification, g *models.Grievance) events.Notification {
	n.GrievanceID = g.ID.Hex()
	n.Title = g.Title
	n.Status = g.Status
	return n
}

func (t *Templates) GrievanceCreated(g *models.Grievance, department string, dms []models.User) (events.Notification, error) {
	n, err := t.event(events.TypeGrievanceCreated, "grievance_created", "New Grievance: "+g.Title, map[string]interface{}{
		"Title":      g.Title,
		"Department": department,
		"Category":   g.Category,
		"Severity":   g.Severity,
		"Link":       t.link("/dashboard/unassigned-grievances"),
	}, dms)
	return forGrievance(n, g), err
}

func (t *Templates) AssignedToOfficer(g *models.Grievance, department string, officer *models.User, message string) (events.Notification, error) {
	n, err := t.event(events.TypeGrievanceAssigned, "assigned_officer", "New Grievance Assigned to Your Department", map[string]interface{}{
		"Title":      g.Title,
		"Department": department,
		"Category":   g.Category,
		"Priority":   g.Priority,
		"Message":    strings.TrimSpace(message),
		"Link":       t.link("/dashboard/assigned-grievances"),
	}, []models.User{*officer})
	return forGrievance(n, g), err
}

func (t *Templates) AssignedToCitizen(g *models.Grievance, department string, citizen *models.User) (events.Notification, error) {
	n, err := t.event(events.TypeGrievanceAssigned, "assigned_citizen", "Your Grievance Has Been Assigned", map[string]interface{}{
		"Title":      g.Title,
		"Department": department,
		"Status":     g.Status,
		"Link":       t.link("/dashboard/my-grievances"),
	}, []models.User{*citizen})
	return forGrievance(n, g), err
}

// StatusUpdate describes a staff update for rendering.
type StatusUpdate struct {
	PreviousStatus string
	UpdatedBy      string
	Note           string
	ByDM           bool
}

func (t *Templates) StatusUpdatedForDMs(g *models.Grievance, upd StatusUpdate, dms []models.User) (events.Notification, error) {
	n, err := t.event(events.TypeStatusUpdated, "status_dm", "Grievance Status Updated: "+g.Title, map[string]interface{}{
		"Title":          g.Title,
		"PreviousStatus": upd.PreviousStatus,
		"Status":         g.Status,
		"UpdatedBy":      upd.UpdatedBy,
		"Note":           strings.TrimSpace(upd.Note),
		"Link":           t.link("/dashboard/manage-grievances"),
	}, dms)
	return forGrievance(n, g), err
}

func (t *Templates) StatusUpdatedForCitizen(g *models.Grievance, upd StatusUpdate, citizen *models.User) (events.Notification, error) {
	subject := "Your Grievance Status Updated: " + g.Title
	if upd.ByDM {
		subject = "Grievance Status Updated by DM: " + g.Title
	}
	n, err := t.event(events.TypeStatusUpdated, "status_citizen", subject, map[string]interface{}{
		"Title":     g.Title,
		"Status":    g.Status,
		"UpdatedBy": upd.UpdatedBy,
		"Note":      strings.TrimSpace(upd.Note),
		"ByDM":      upd.ByDM,
		"Link":      t.link("/dashboard/my-grievances"),
	}, []models.User{*citizen})
	return forGrievance(n, g), err
}

func (t *Templates) Resolved(g *models.Grievance, citizen *models.User) (events.Notification, error) {
	n, err := t.event(events.TypeGrievanceResolved, "resolved", "Grievance Resolved: "+g.Title, map[string]interface{}{
		"Title":      g.Title,
		"Resolution": g.ResolutionDetails,
		"Link":       t.link("/dashboard/my-grievances"),
	}, []models.User{*citizen})
	return forGrievance(n, g), err
}

func (t *Templates) DepartmentCreated(d *models.Department, dms []models.User) (events.Notification, error) {
	n, err := t.event(events.TypeDepartmentCreated, "department_created", "New Department Created: "+d.Name, map[string]interface{}{
		"Name":        d.Name,
		"Description": d.Description,
	}, dms)
	n.Title = d.Name
	return n, err
}

func (t *Templates) Welcome(u *models.User) (events.Notification, error) {
	return t.event(events.TypeAccountWelcome, "welcome", "Welcome to the Grievance Portal!", map[string]interface{}{
		"FirstName": u.FirstName,
		"Link":      t.link("/"),
	}, []models.User{*u})
}

func (t *Templates) StaffWelcome(u *models.User) (events.Notification, error) {
	return t.event(events.TypeAccountWelcome, "staff_welcome", "Welcome to the Grievance Portal!", map[string]interface{}{
		"FirstName":   u.FirstName,
		"AccountType": u.AccountType,
		"Email":       u.Email,
		"Link":        t.link("/login"),
	}, []models.User{*u})
}

// PasswordReset renders the reset mail. It is delivered synchronously, so
// only the subject and body are returned.
func (t *Templates) PasswordReset(token string) (subject, html string, err error) {
	html, err = t.render("password_reset", map[string]interface{}{
		"Link": t.link("/reset-password/" + token),
	})
	return "Password Reset Request", html, err
}

func (t *Templates) OTP(code string) (subject, html string, err error) {
	html, err = t.render("otp", map[string]interface{}{"OTP": code})
	return "Verification Email", html, err
}
