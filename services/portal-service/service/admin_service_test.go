package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"grievance-portal/pkg/apperror"
	"grievance-portal/pkg/events"
	"grievance-portal/services/portal-service/models"
	"grievance-portal/services/portal-service/repository"
	"grievance-portal/services/portal-service/workflow"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkProgressCompletionResolvesGrievance(t *testing.T) {
	w := newGrievanceWorld(t)
	ctx := context.Background()
	progress := NewWorkProgressService(w.deps)

	g := w.submit(t, w.citizen, "Pothole", w.roads)
	_, err := w.svc.Assign(ctx, w.dm, g.ID, w.roads.ID, "")
	require.NoError(t, err)

	page, err := progress.List(ctx, w.nodal, WorkProgressQuery{AssignedTo: w.nodalHlt.ID})
	require.NoError(t, err)
	require.EqualValues(t, 1, page.Total, "nodal officers always see their own entries")
	entry := page.Entries[0]
	assert.Equal(t, g.ID, entry.Grievance.ID)
	assert.Equal(t, w.nodal.ID, entry.AssignedTo.ID)

	_, err = progress.Update(ctx, w.nodalHlt, entry.ID, workflow.ProgressUpdate{Status: strp(models.WorkInProgress)})
	assert.Equal(t, http.StatusForbidden, apperror.StatusOf(err))

	_, err = progress.Update(ctx, w.nodal, entry.ID, workflow.ProgressUpdate{Status: strp("Done")})
	assert.Equal(t, http.StatusBadRequest, apperror.StatusOf(err))

	w.advance(time.Hour)
	done, err := progress.Update(ctx, w.nodal, entry.ID, workflow.ProgressUpdate{
		Status: strp(models.WorkCompleted), Remarks: strp("Patched with asphalt"),
	})
	require.NoError(t, err)
	require.NotNil(t, done.CompletionDate)
	assert.Equal(t, *w.clock, *done.CompletionDate)
	assert.Equal(t, models.StatusResolved, done.Grievance.Status)

	resolved, err := w.svc.Get(ctx, w.citizen, g.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusResolved, resolved.Status)
	assert.Equal(t, "Patched with asphalt", resolved.ResolutionDetails)
	require.NotNil(t, resolved.ResolvedAt)
	require.Len(t, w.dispatched.ofType(events.TypeGrievanceResolved), 1)

	_, err = progress.Update(ctx, w.nodal, entry.ID, workflow.ProgressUpdate{Remarks: strp("Follow-up inspection")})
	require.NoError(t, err)
	assert.Len(t, w.dispatched.ofType(events.TypeGrievanceResolved), 1, "only the transition into Completed cascades")
}

func TestWorkProgressAccess(t *testing.T) {
	w := newGrievanceWorld(t)
	ctx := context.Background()
	progress := NewWorkProgressService(w.deps)

	_, err := progress.List(ctx, w.citizen, WorkProgressQuery{})
	assert.Equal(t, http.StatusForbidden, apperror.StatusOf(err))

	_, err = progress.List(ctx, w.dm, WorkProgressQuery{GrievanceID: "nope"})
	assert.Equal(t, http.StatusBadRequest, apperror.StatusOf(err))

	_, err = progress.Get(ctx, w.dm, "nope")
	assert.Equal(t, http.StatusNotFound, apperror.StatusOf(err))

	g := w.submit(t, w.citizen, "Pothole", w.roads)
	_, err = w.svc.Assign(ctx, w.dm, g.ID, w.roads.ID, "")
	require.NoError(t, err)

	page, err := progress.List(ctx, w.dm, WorkProgressQuery{GrievanceID: g.ID})
	require.NoError(t, err)
	require.Len(t, page.Entries, 1)

	_, err = progress.Get(ctx, w.nodalHlt, page.Entries[0].ID)
	assert.Equal(t, http.StatusForbidden, apperror.StatusOf(err))

	require.NoError(t, w.svc.Delete(ctx, w.dm, g.ID))
	orphan, err := progress.Get(ctx, w.dm, page.Entries[0].ID)
	require.NoError(t, err)
	assert.Nil(t, orphan.Grievance)
}

func TestDepartments(t *testing.T) {
	f := newFixture(t)
	svc := NewDepartmentService(f.deps)
	ctx := context.Background()
	_, dm := f.user(t, "Dev", "dm@example.com", models.AccountDM, "secret1", nil)
	_, citizen := f.user(t, "Asha", "asha@example.com", models.AccountCitizen, "secret1", nil)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	_, err = svc.Create(ctx, citizen, "Water", "")
	assert.Equal(t, http.StatusForbidden, apperror.StatusOf(err))

	water, err := svc.Create(ctx, dm, " Water ", "Supply and drainage")
	require.NoError(t, err)
	assert.Equal(t, "Water", water.Name)
	created := f.dispatched.ofType(events.TypeDepartmentCreated)
	require.Len(t, created, 1)
	assert.Equal(t, []string{"dm@example.com"}, created[0].Recipients)

	_, err = svc.Create(ctx, dm, "Water", "")
	assert.Equal(t, http.StatusConflict, apperror.StatusOf(err))

	roads, err := svc.Create(ctx, dm, "Roads", "")
	require.NoError(t, err)
	_, err = svc.Update(ctx, dm, roads.ID, strp("Water"), nil)
	assert.Equal(t, http.StatusConflict, apperror.StatusOf(err))

	renamed, err := svc.Update(ctx, dm, roads.ID, strp("Roads & Bridges"), strp("Highways"))
	require.NoError(t, err)
	assert.Equal(t, "Roads & Bridges", renamed.Name)
	assert.Equal(t, "Highways", renamed.Description)

	same, err := svc.Update(ctx, dm, water.ID, strp("Water"), nil)
	require.NoError(t, err, "keeping the current name is not a conflict")
	assert.Equal(t, "Supply and drainage", same.Description)

	require.NoError(t, svc.Delete(ctx, dm, water.ID))
	assert.Equal(t, http.StatusNotFound, apperror.StatusOf(svc.Delete(ctx, dm, water.ID)))
}

func TestUserStatus(t *testing.T) {
	f := newFixture(t)
	svc := NewUserService(f.deps)
	ctx := context.Background()
	roads := f.department(t, "Public Works")
	_, dm := f.user(t, "Dev", "dm@example.com", models.AccountDM, "secret1", nil)
	officer, _ := f.user(t, "Ravi", "ravi@example.com", models.AccountNodal, "secret1", roads)
	_, citizen := f.user(t, "Asha", "asha@example.com", models.AccountCitizen, "secret1", nil)

	_, err := svc.UpdateStatus(ctx, citizen, officer.ID, boolp(false))
	assert.Equal(t, http.StatusForbidden, apperror.StatusOf(err))

	_, err = svc.UpdateStatus(ctx, dm, dm.ID, boolp(false))
	assert.Equal(t, http.StatusBadRequest, apperror.StatusOf(err))

	_, err = svc.UpdateStatus(ctx, dm, officer.ID, nil)
	assert.Equal(t, http.StatusBadRequest, apperror.StatusOf(err))

	view, err := svc.UpdateStatus(ctx, dm, officer.ID, boolp(false))
	require.NoError(t, err)
	assert.False(t, view.Active)
	require.NotNil(t, view.Department)
	assert.Equal(t, "Public Works", view.Department.Name)

	_, err = f.users.FindActiveNodalOfficer(ctx, roads.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	p, err := svc.LoadPrincipal(ctx, officer.ID)
	require.NoError(t, err)
	assert.False(t, p.Active)
	assert.Equal(t, roads.ID, p.DepartmentID)

	missing, err := svc.LoadPrincipal(ctx, "ghost")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUserList(t *testing.T) {
	f := newFixture(t)
	svc := NewUserService(f.deps)
	ctx := context.Background()
	_, dm := f.user(t, "Dev", "dm@example.com", models.AccountDM, "secret1", nil)
	_, citizen := f.user(t, "Asha", "asha@example.com", models.AccountCitizen, "secret1", nil)
	f.user(t, "Vikram", "vikram@example.com", models.AccountCitizen, "secret1", nil)

	_, err := svc.List(ctx, citizen, UserQuery{})
	assert.Equal(t, http.StatusForbidden, apperror.StatusOf(err))

	_, err = svc.List(ctx, dm, UserQuery{AccountType: "Admin"})
	assert.Equal(t, http.StatusBadRequest, apperror.StatusOf(err))

	page, err := svc.List(ctx, dm, UserQuery{AccountType: models.AccountCitizen})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)
	assert.Equal(t, "vikram@example.com", page.Users[0].Email, "newest first")
}

func TestProfiles(t *testing.T) {
	f := newFixture(t)
	svc := NewProfileService(f.deps)
	ctx := context.Background()
	roads := f.department(t, "Public Works")
	_, dm := f.user(t, "Dev", "dm@example.com", models.AccountDM, "secret1", nil)
	_, nodal := f.user(t, "Ravi", "ravi@example.com", models.AccountNodal, "secret1", roads)
	asha, citizen := f.user(t, "Asha", "asha@example.com", models.AccountCitizen, "secret1", nil)
	_, other := f.user(t, "Vikram", "vikram@example.com", models.AccountCitizen, "secret1", nil)

	_, err := svc.Get(ctx, other, asha.ID)
	assert.Equal(t, http.StatusForbidden, apperror.StatusOf(err))
	_, err = svc.Get(ctx, nodal, asha.ID)
	assert.NoError(t, err)

	_, err = svc.Update(ctx, nodal, asha.ID, ProfileInput{FirstName: strp("X")})
	assert.Equal(t, http.StatusForbidden, apperror.StatusOf(err), "only the owner or a DM may edit")

	_, err = svc.Update(ctx, citizen, asha.ID, ProfileInput{Gender: strp("Robot")})
	assert.Equal(t, http.StatusBadRequest, apperror.StatusOf(err))
	_, err = svc.Update(ctx, citizen, asha.ID, ProfileInput{DateOfBirth: strp("01/02/1990")})
	assert.Equal(t, http.StatusBadRequest, apperror.StatusOf(err))
	_, err = svc.Update(ctx, citizen, asha.ID, ProfileInput{DepartmentID: strp("missing")})
	assert.Equal(t, http.StatusBadRequest, apperror.StatusOf(err))

	view, err := svc.Update(ctx, citizen, asha.ID, ProfileInput{
		LastName: strp(" Rao "), Gender: strp("Female"), DateOfBirth: strp("1990-02-01"), ContactNumber: strp("98765"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Rao", view.LastName)
	assert.Equal(t, "Female", view.AdditionalDetails.Gender)
	require.NotNil(t, view.AdditionalDetails.DateOfBirth)
	assert.Equal(t, time.Date(1990, 2, 1, 0, 0, 0, 0, time.UTC), *view.AdditionalDetails.DateOfBirth)

	view, err = svc.Update(ctx, dm, asha.ID, ProfileInput{Address: strp("12 MG Road")})
	require.NoError(t, err)
	assert.Equal(t, "12 MG Road", view.AdditionalDetails.Address)
	assert.Equal(t, "Rao", view.LastName)

	_, err = svc.UploadImage(ctx, citizen, asha.ID, upload("clip.mp4", "video/mp4", 10))
	assert.Equal(t, http.StatusBadRequest, apperror.StatusOf(err))

	view, err = svc.UploadImage(ctx, citizen, asha.ID, upload("me.png", "image/png", 10))
	require.NoError(t, err)
	assert.Equal(t, "http://media.local/profiles/profile_"+asha.ID, view.Image)
	assert.Contains(t, f.objects.objects, profileImageKey(asha.ID))
}
