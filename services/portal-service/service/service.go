// Package service implements the portal's use cases on top of the
// repositories, the workflow rules and the notification dispatcher.
package service

import (
	"context"
	"errors"
	"time"

	"grievance-portal/pkg/apperror"
	"grievance-portal/pkg/events"
	"grievance-portal/pkg/logger"
	"grievance-portal/pkg/mailer"
	"grievance-portal/pkg/security"
	"grievance-portal/pkg/storage"
	"grievance-portal/services/portal-service/models"
	"grievance-portal/services/portal-service/notification"
	"grievance-portal/services/portal-service/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Deps are the collaborators shared by every service. They are constructed
// once at startup and passed in explicitly.
type Deps struct {
	Users        repository.UserRepository
	Departments  repository.DepartmentRepository
	Grievances   repository.GrievanceRepository
	WorkProgress repository.WorkProgressRepository
	OTPs         repository.OTPStore
	Denylist     repository.TokenDenylist
	Objects      storage.ObjectStore
	Mailer       mailer.Mailer
	Dispatcher   notification.Dispatcher
	Templates    *notification.Templates
	Tokens       *security.TokenManager
	Now          func() time.Time
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now().UTC()
	}
	return time.Now().UTC()
}

// notify hands a rendered notification to the dispatcher. Rendering errors
// are logged and dropped like delivery errors.
func (d Deps) notify(ctx context.Context, n events.Notification, err error) {
	if err != nil {
		logger.Warn(ctx, "Failed to render notification", err)
		return
	}
	if d.Dispatcher == nil {
		return
	}
	d.Dispatcher.Dispatch(ctx, n)
}

func (d Deps) activeDMs(ctx context.Context) []models.User {
	dms, err := d.Users.ListActiveByType(ctx, models.AccountDM)
	if err != nil {
		logger.Warn(ctx, "Failed to load district magistrates for notification", err)
		return nil
	}
	return dms
}

// userForNotice loads a notification recipient, logging instead of failing.
func (d Deps) userForNotice(ctx context.Context, id string) *models.User {
	u, err := d.Users.FindByID(ctx, id)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			logger.Warn(ctx, "Failed to load notification recipient", err)
		}
		return nil
	}
	return u
}

// lookupError maps a repository miss to a 404 with msg and anything else to a 500.
func lookupError(err error, msg string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperror.NotFound(msg)
	}
	return apperror.Internal("Internal server error", err)
}

func parseObjectID(id, notFoundMsg string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, apperror.NotFound(notFoundMsg)
	}
	return oid, nil
}
