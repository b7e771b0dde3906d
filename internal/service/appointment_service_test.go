package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/clinic-booking/internal/domain"
	apperrors "github.com/spec-kit/clinic-booking/pkg/util/errorutil"
)

var checkup = AppointmentInput{PetName: "Rex", Service: "Checkup", Date: "2024-05-01", Time: "10:00"}

func TestCreateAndConfirmScenario(t *testing.T) {
	f := newFixture(t, "vet@clinic.test", "desk@clinic.test")
	ctx := context.Background()
	owner := f.register(t, "Alice", "a@x.com", "secret1")
	admin := f.register(t, "Admin", "admin@x.com", "secret1")

	appt := f.book(t, owner, checkup)
	assert.Equal(t, domain.AppointmentStatusPending, appt.Status)
	assert.False(t, appt.HiddenByUser)
	assert.False(t, appt.HiddenByAdmin)
	assert.Len(t, f.sender.to("a@x.com"), 1)
	assert.Len(t, f.sender.to("vet@clinic.test"), 1)
	assert.Len(t, f.sender.to("desk@clinic.test"), 1)

	f.sender.reset()
	updated, err := f.appointments.Transition(ctx, admin.Identity(), appt.ID, domain.ActionConfirm)
	require.NoError(t, err)
	assert.Equal(t, domain.AppointmentStatusConfirmed, updated.Status)

	require.Len(t, f.sender.sent, 1)
	assert.Equal(t, "a@x.com", f.sender.sent[0].To)
	assert.Equal(t, "VetConnect: Appointment confirmed", f.sender.sent[0].Subject)
	assert.Equal(t, 1.0, f.metricsTransitions("confirmed"))
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	owner := f.register(t, "Alice", "a@x.com", "secret1")

	cases := []AppointmentInput{
		{Service: "", Date: "2024-05-01", Time: "10:00"},
		{Service: "Checkup", Date: "", Time: "10:00"},
		{Service: "Checkup", Date: "2024-05-01", Time: ""},
		{Service: "Checkup", Date: "01/05/2024", Time: "10:00"},
		{Service: "Checkup", Date: "2024-05-01", Time: "10am"},
	}
	for _, input := range cases {
		_, err := f.appointments.Create(context.Background(), owner.Identity(), input)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation), "input %+v", input)
	}
	assert.Empty(t, f.sender.sent)
}

func TestCreateWithoutPetName(t *testing.T) {
	f := newFixture(t)
	owner := f.register(t, "Alice", "a@x.com", "secret1")

	appt := f.book(t, owner, AppointmentInput{Service: "Grooming", Date: "2024-05-02", Time: "09:30"})
	assert.Empty(t, appt.PetName)
	require.Len(t, f.sender.sent, 1)
	assert.Contains(t, f.sender.sent[0].HTMLBody, "your pet")
}

func TestTransitionIsNotGuarded(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.register(t, "Alice", "a@x.com", "secret1")
	appt := f.book(t, owner, checkup)
	f.sender.reset()

	_, err := f.appointments.Transition(ctx, domain.Identity{}, appt.ID, domain.ActionCancel)
	require.NoError(t, err)
	again, err := f.appointments.Transition(ctx, domain.Identity{}, appt.ID, domain.ActionConfirm)
	require.NoError(t, err)
	assert.Equal(t, domain.AppointmentStatusConfirmed, again.Status)
	assert.Len(t, f.sender.sent, 2)
}

func TestTransitionErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.register(t, "Alice", "a@x.com", "secret1")
	appt := f.book(t, owner, checkup)

	_, err := f.appointments.Transition(ctx, domain.Identity{}, appt.ID, domain.AppointmentAction("archive"))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, err = f.appointments.Transition(ctx, domain.Identity{}, "42", domain.ActionConfirm)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	_, err = f.appointments.Transition(ctx, domain.Identity{}, "7f0c3a8e-2b8e-4f4b-9f43-2d7a3f9d8e11", domain.ActionConfirm)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestTransitionSurvivesMailFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.register(t, "Alice", "a@x.com", "secret1")
	appt := f.book(t, owner, checkup)
	f.sender.fail = true

	updated, err := f.appointments.Transition(ctx, domain.Identity{}, appt.ID, domain.ActionCancel)
	require.NoError(t, err)
	assert.Equal(t, domain.AppointmentStatusCancelled, updated.Status)
	assert.Equal(t, 1.0, f.metricsNotifications("appointment_status_changed", "failed"))
}

func TestListForUserExcludesHidden(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.register(t, "Alice", "a@x.com", "secret1")
	other := f.register(t, "Bob", "b@x.com", "secret1")

	late := f.book(t, owner, AppointmentInput{Service: "Checkup", Date: "2024-05-02", Time: "09:00"})
	early := f.book(t, owner, AppointmentInput{Service: "Checkup", Date: "2024-05-01", Time: "11:00"})
	hidden := f.book(t, owner, AppointmentInput{Service: "Dental", Date: "2024-05-01", Time: "08:00"})
	f.book(t, other, checkup)

	require.NoError(t, f.appointments.HideForUser(ctx, owner.Identity(), hidden.ID))

	list, err := f.appointments.ListForUser(ctx, owner.Identity())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, early.ID, list[0].ID)
	assert.Equal(t, late.ID, list[1].ID)
	for _, appt := range list {
		assert.False(t, appt.HiddenByUser)
	}

	stored, err := f.store.Appointments().GetByID(ctx, hidden.ID)
	require.NoError(t, err)
	assert.True(t, stored.HiddenByUser)
}

func TestListUpcoming(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.register(t, "Alice", "a@x.com", "secret1")

	f.book(t, owner, AppointmentInput{Service: "Past", Date: "2024-04-19", Time: "10:00"})
	for _, date := range []string{"2024-04-20", "2024-04-21", "2024-04-22", "2024-04-23", "2024-04-24", "2024-04-25"} {
		f.book(t, owner, AppointmentInput{Service: "Checkup", Date: date, Time: "10:00"})
	}

	list, err := f.appointments.ListUpcoming(ctx, owner.Identity(), 0)
	require.NoError(t, err)
	require.Len(t, list, UpcomingLimit)
	assert.Equal(t, "2024-04-20", list[0].Date)
	assert.Equal(t, "2024-04-24", list[4].Date)
}

func TestListForAdminFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "Alice", "a@x.com", "secret1")
	bob := f.register(t, "Bob Stone", "b@x.com", "secret1")

	rex := f.book(t, alice, checkup)
	dental := f.book(t, bob, AppointmentInput{PetName: "Milo", Service: "Dental", Date: "2024-05-01", Time: "09:00"})
	archived := f.book(t, bob, AppointmentInput{PetName: "Rexy", Service: "Checkup", Date: "2024-05-03", Time: "09:00"})
	_, err := f.appointments.Transition(ctx, domain.Identity{}, rex.ID, domain.ActionConfirm)
	require.NoError(t, err)
	require.NoError(t, f.appointments.ArchiveForAdmin(ctx, archived.ID))

	all, err := f.appointments.ListForAdmin(ctx, AdminFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, dental.ID, all[0].ID)
	assert.Equal(t, rex.ID, all[1].ID)

	confirmed, err := f.appointments.ListForAdmin(ctx, AdminFilter{Status: "Confirmed"})
	require.NoError(t, err)
	require.Len(t, confirmed, 1)
	assert.Equal(t, rex.ID, confirmed[0].ID)

	ignored, err := f.appointments.ListForAdmin(ctx, AdminFilter{Status: "archived"})
	require.NoError(t, err)
	assert.Len(t, ignored, 2)

	byOwner, err := f.appointments.ListForAdmin(ctx, AdminFilter{Query: "stone"})
	require.NoError(t, err)
	require.Len(t, byOwner, 1)
	assert.Equal(t, dental.ID, byOwner[0].ID)

	byPet, err := f.appointments.ListForAdmin(ctx, AdminFilter{Query: "REX"})
	require.NoError(t, err)
	require.Len(t, byPet, 1)
	assert.Equal(t, rex.ID, byPet[0].ID)

	byDate, err := f.appointments.ListForAdmin(ctx, AdminFilter{Date: "2024-05-03"})
	require.NoError(t, err)
	assert.Empty(t, byDate)

	require.NoError(t, f.appointments.UnarchiveForAdmin(ctx, archived.ID))
	byDate, err = f.appointments.ListForAdmin(ctx, AdminFilter{Date: "2024-05-03"})
	require.NoError(t, err)
	assert.Len(t, byDate, 1)
}

func TestHideForOtherUserRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "Alice", "a@x.com", "secret1")
	bob := f.register(t, "Bob", "b@x.com", "secret1")
	appt := f.book(t, bob, checkup)

	err := f.appointments.HideForUser(ctx, alice.Identity(), appt.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
	err = f.appointments.DeleteForUser(ctx, alice.Identity(), appt.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))

	stored, err := f.store.Appointments().GetByID(ctx, appt.ID)
	require.NoError(t, err)
	assert.False(t, stored.HiddenByUser)
	assert.Equal(t, domain.AppointmentStatusPending, stored.Status)
}

func TestDeleteForUserAndAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.register(t, "Alice", "a@x.com", "secret1")
	mine := f.book(t, owner, checkup)
	other := f.book(t, owner, checkup)

	require.NoError(t, f.appointments.DeleteForUser(ctx, owner.Identity(), mine.ID))
	err := f.appointments.DeleteForUser(ctx, owner.Identity(), mine.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	require.NoError(t, f.appointments.DeleteForAdmin(ctx, other.ID))
	err = f.appointments.DeleteForAdmin(ctx, other.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	err = f.appointments.ArchiveForAdmin(ctx, other.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
	err = f.appointments.UnarchiveForAdmin(ctx, "not-an-id")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestCreatePadsTimeSoListingsSortBySchedule(t *testing.T) {
	f := newFixture(t)
	owner := f.register(t, "Alice", "a@x.com", "secret1")

	late := f.book(t, owner, AppointmentInput{Service: "Checkup", Date: "2024-05-01", Time: "10:00"})
	early := f.book(t, owner, AppointmentInput{Service: "Checkup", Date: "2024-05-01", Time: "9:00"})
	assert.Equal(t, "09:00", early.Time)

	list, err := f.appointments.ListForUser(context.Background(), owner.Identity())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, early.ID, list[0].ID)
	assert.Equal(t, late.ID, list[1].ID)

	_, err = f.appointments.Create(context.Background(), owner.Identity(),
		AppointmentInput{Service: "Checkup", Date: "2024-5-1", Time: "10:00"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestCreateRejectsOverlongDetails(t *testing.T) {
	f := newFixture(t)
	owner := f.register(t, "Alice", "a@x.com", "secret1")

	for _, input := range []AppointmentInput{
		{Service: strings.Repeat("s", 121), Date: "2024-05-01", Time: "10:00"},
		{PetName: strings.Repeat("p", 121), Service: "Checkup", Date: "2024-05-01", Time: "10:00"},
	} {
		_, err := f.appointments.Create(context.Background(), owner.Identity(), input)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
	}
	assert.Empty(t, f.sender.sent)

	f.book(t, owner, AppointmentInput{PetName: strings.Repeat("p", 120), Service: "Checkup", Date: "2024-05-01", Time: "10:00"})
}
