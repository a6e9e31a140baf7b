// Package workflow holds the grievance lifecycle rules. It performs no I/O:
// callers load records, apply a rule, then persist the result.
package workflow

import "grievance-portal/services/portal-service/models"

type Actor struct {
	ID           string
	AccountType  string
	DepartmentID string
	FirstName    string
	LastName     string
	Email        string
}

func (a Actor) IsCitizen() bool { return a.AccountType == models.AccountCitizen }
func (a Actor) IsDM() bool      { return a.AccountType == models.AccountDM }
func (a Actor) IsNodal() bool   { return a.AccountType == models.AccountNodal }
func (a Actor) IsStaff() bool   { return a.IsDM() || a.IsNodal() }

func (a Actor) FullName() string {
	return a.FirstName + " " + a.LastName
}

// Scope is the implicit visibility constraint applied to every grievance
// query made by an actor. Explicit filters narrow it, never widen it.
type Scope struct {
	OwnerID      string
	DepartmentID string
	ByDepartment bool
	AssignedOnly bool
	Deny         bool
}

// ScopeFor returns the visibility rule for a:
// citizens see their own grievances, nodal officers see assigned grievances
// of their department, district magistrates see everything.
func ScopeFor(a Actor) Scope {
	switch a.AccountType {
	case models.AccountCitizen:
		return Scope{OwnerID: a.ID}
	case models.AccountNodal:
		return Scope{DepartmentID: a.DepartmentID, ByDepartment: true, AssignedOnly: true}
	case models.AccountDM:
		return Scope{}
	default:
		return Scope{Deny: true}
	}
}

func (s Scope) Allows(g *models.Grievance) bool {
	if s.Deny {
		return false
	}
	if s.OwnerID != "" && g.UserID != s.OwnerID {
		return false
	}
	if s.ByDepartment && g.DepartmentID != s.DepartmentID {
		return false
	}
	if s.AssignedOnly && !g.IsAssigned() {
		return false
	}
	return true
}

func CanView(a Actor, g *models.Grievance) bool {
	return ScopeFor(a).Allows(g)
}
