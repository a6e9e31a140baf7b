package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	AccountCitizen = "Citizen"
	AccountDM      = "District Magistrate"
	AccountNodal   = "Nodal Officers"
)

var genders = map[string]bool{
	"Male":              true,
	"Female":            true,
	"Other":             true,
	"Prefer not to say": true,
}

func IsValidAccountType(t string) bool {
	return t == AccountCitizen || t == AccountDM || t == AccountNodal
}

func IsValidGender(g string) bool {
	return genders[g]
}

type AdditionalDetails struct {
	Gender        string     `json:"gender,omitempty"`
	DateOfBirth   *time.Time `json:"dateOfBirth,omitempty"`
	ContactNumber string     `json:"contactNumber,omitempty"`
	Address       string     `json:"address,omitempty"`
	OfficerID     string     `json:"officerId,omitempty"`
}

// User is an account of any type. DepartmentID is only meaningful for nodal
// officers and is not a foreign key, so deleting a department leaves it dangling.
type User struct {
	ID                   string            `gorm:"type:varchar(36);primaryKey" json:"id"`
	FirstName            string            `gorm:"not null" json:"firstName"`
	LastName             string            `gorm:"not null" json:"lastName"`
	Email                string            `gorm:"uniqueIndex;not null" json:"email"`
	Password             string            `gorm:"not null" json:"-"`
	AccountType          string            `gorm:"index;not null" json:"accountType"`
	Active               bool              `gorm:"not null" json:"active"`
	DepartmentID         *string           `gorm:"type:varchar(36);index" json:"-"`
	Image                string            `json:"image,omitempty"`
	ResetToken           *string           `gorm:"index" json:"-"`
	ResetPasswordExpires *time.Time        `json:"-"`
	AdditionalDetails    AdditionalDetails `gorm:"embedded;embeddedPrefix:detail_" json:"additionalDetails"`
	CreatedAt            time.Time         `json:"createdAt"`
	UpdatedAt            time.Time         `json:"updatedAt"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}

func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

func (u *User) Department() string {
	if u.DepartmentID == nil {
		return ""
	}
	return *u.DepartmentID
}
