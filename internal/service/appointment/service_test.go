package appointment

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smarthealth/healthconnect-api/internal/config"
	"github.com/smarthealth/healthconnect-api/internal/model"
	"github.com/smarthealth/healthconnect-api/internal/repository"
	"github.com/smarthealth/healthconnect-api/pkg/errors"
	"github.com/smarthealth/healthconnect-api/pkg/logger"
)

type fakeUserRepo struct {
	users map[uuid.UUID]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*model.User)}
}

func (r *fakeUserRepo) add(role model.Role) *model.User {
	u := &model.User{
		Base:     model.Base{ID: uuid.New()},
		Username: uuid.New().String()[:8],
		Role:     role,
		IsActive: true,
	}
	r.users[u.ID] = u
	return u
}

func (r *fakeUserRepo) Create(ctx context.Context, user *model.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, errors.NotFound("user", nil)
	}
	return u, nil
}

func (r *fakeUserRepo) GetByUsernameOrEmail(ctx context.Context, usernameOrEmail string) (*model.User, error) {
	for _, u := range r.users {
		if u.Username == usernameOrEmail || u.Email == usernameOrEmail {
			return u, nil
		}
	}
	return nil, errors.NotFound("user", nil)
}

func (r *fakeUserRepo) Update(ctx context.Context, user *model.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) List(ctx context.Context, filters *model.UserFilters) ([]*model.User, error) {
	var out []*model.User
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, nil
}

func (r *fakeUserRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, err := r.GetByUsernameOrEmail(ctx, username)
	return err == nil, nil
}

func (r *fakeUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByUsernameOrEmail(ctx, email)
	return err == nil, nil
}

func (r *fakeUserRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	u, ok := r.users[id]
	if !ok {
		return errors.NotFound("user", nil)
	}
	u.IsActive = active
	return nil
}

func (r *fakeUserRepo) UpdateEmailVerified(ctx context.Context, id uuid.UUID, verified bool) error {
	u, ok := r.users[id]
	if !ok {
		return errors.NotFound("user", nil)
	}
	u.EmailVerified = verified
	return nil
}

func (r *fakeUserRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(r.users)), nil
}

func (r *fakeUserRepo) CountActiveByRole(ctx context.Context, role model.Role) (int64, error) {
	var n int64
	for _, u := range r.users {
		if u.Role == role && u.IsActive {
			n++
		}
	}
	return n, nil
}

type fakeAppointmentRepo struct {
	appts  map[uuid.UUID]*model.Appointment
	events []*model.OutboxEvent
}

func newFakeAppointmentRepo() *fakeAppointmentRepo {
	return &fakeAppointmentRepo{appts: make(map[uuid.UUID]*model.Appointment)}
}

func (r *fakeAppointmentRepo) CreateIfSlotFree(ctx context.Context, appt *model.Appointment, event *model.OutboxEvent) error {
	end := appt.EndTime()
	for _, existing := range r.appts {
		if existing.DoctorID == appt.DoctorID && existing.Status.BlocksSlot() && existing.Overlaps(appt.StartTime, end) {
			return repository.ErrSlotTaken
		}
	}
	cp := *appt
	r.appts[appt.ID] = &cp
	if event != nil {
		r.events = append(r.events, event)
	}
	return nil
}

func (r *fakeAppointmentRepo) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	appt, ok := r.appts[id]
	if !ok {
		return nil, errors.NotFound("appointment", nil)
	}
	cp := *appt
	return &cp, nil
}

func (r *fakeAppointmentRepo) Update(ctx context.Context, appt *model.Appointment, event *model.OutboxEvent) error {
	if _, ok := r.appts[appt.ID]; !ok {
		return errors.NotFound("appointment", nil)
	}
	cp := *appt
	r.appts[appt.ID] = &cp
	if event != nil {
		r.events = append(r.events, event)
	}
	return nil
}

func (r *fakeAppointmentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(r.appts, id)
	return nil
}

func (r *fakeAppointmentRepo) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	var out []*model.Appointment
	for _, appt := range r.appts {
		if filters.PatientID != uuid.Nil && appt.PatientID != filters.PatientID {
			continue
		}
		if filters.DoctorID != uuid.Nil && appt.DoctorID != filters.DoctorID {
			continue
		}
		if filters.Status != "" && appt.Status != filters.Status {
			continue
		}
		if !filters.From.IsZero() && appt.StartTime.Before(filters.From) {
			continue
		}
		if !filters.To.IsZero() && !appt.StartTime.Before(filters.To) {
			continue
		}
		cp := *appt
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeAppointmentRepo) FindOverlapping(ctx context.Context, doctorID uuid.UUID, start, end time.Time) ([]*model.Appointment, error) {
	var out []*model.Appointment
	for _, appt := range r.appts {
		if appt.DoctorID == doctorID && appt.Status.BlocksSlot() && appt.Overlaps(start, end) {
			cp := *appt
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeAppointmentRepo) Count(ctx context.Context, filters *model.AppointmentFilters) (int64, error) {
	appts, _ := r.List(ctx, filters)
	return int64(len(appts)), nil
}

func newTestService(t *testing.T, strict bool) (*Service, *fakeUserRepo, *fakeAppointmentRepo) {
	t.Helper()
	users := newFakeUserRepo()
	appts := newFakeAppointmentRepo()
	svc := NewService(appts, users, config.AppointmentConfig{
		StrictTransitions:      strict,
		DefaultDurationMinutes: 30,
	}, logger.NewLogger(nil))
	return svc, users, appts
}

func futureSlot(hours int) time.Time {
	return time.Now().Add(time.Duration(hours) * time.Hour).Truncate(time.Minute)
}

func TestBook_Success(t *testing.T) {
	svc, users, repo := newTestService(t, true)
	patient := users.add(model.RolePatient)
	doctor := users.add(model.RoleDoctor)

	start := futureSlot(24)
	appt, err := svc.Book(context.Background(), patient.ID, &model.BookAppointmentRequest{
		DoctorID:  doctor.ID,
		StartTime: start,
	})
	require.NoError(t, err)

	assert.Equal(t, model.AppointmentStatusScheduled, appt.Status)
	assert.Equal(t, 30, appt.DurationMinutes)
	assert.Equal(t, patient.ID, appt.PatientID)
	require.Len(t, repo.events, 1)
	assert.Equal(t, model.EventAppointmentBooked, repo.events[0].EventType)
}

func TestBook_EventPayloadMatchesStoredAppointment(t *testing.T) {
	svc, users, repo := newTestService(t, true)
	patient := users.add(model.RolePatient)
	doctor := users.add(model.RoleDoctor)

	appt, err := svc.Book(context.Background(), patient.ID, &model.BookAppointmentRequest{
		DoctorID:  doctor.ID,
		StartTime: futureSlot(24),
	})
	require.NoError(t, err)
	require.Len(t, repo.events, 1)

	var published model.Appointment
	require.NoError(t, json.Unmarshal(repo.events[0].Payload, &published))

	stored := repo.appts[appt.ID]
	assert.True(t, published.CreatedAt.Equal(stored.CreatedAt))
	assert.True(t, published.UpdatedAt.Equal(stored.UpdatedAt))
	assert.False(t, stored.CreatedAt.IsZero())
}

func TestBook_OverlapConflicts(t *testing.T) {
	svc, users, _ := newTestService(t, true)
	doctor := users.add(model.RoleDoctor)
	alice := users.add(model.RolePatient)
	bob := users.add(model.RolePatient)

	start := futureSlot(24)
	_, err := svc.Book(context.Background(), alice.ID, &model.BookAppointmentRequest{
		DoctorID:  doctor.ID,
		StartTime: start,
	})
	require.NoError(t, err)

	// Second booking starts inside the first window.
	_, err = svc.Book(context.Background(), bob.ID, &model.BookAppointmentRequest{
		DoctorID:  doctor.ID,
		StartTime: start.Add(15 * time.Minute),
	})
	require.Error(t, err)
	assert.True(t, errors.IsConflict(err))
}

func TestBook_AdjacentSlotsDoNotConflict(t *testing.T) {
	svc, users, _ := newTestService(t, true)
	doctor := users.add(model.RoleDoctor)
	alice := users.add(model.RolePatient)
	bob := users.add(model.RolePatient)

	start := futureSlot(24)
	_, err := svc.Book(context.Background(), alice.ID, &model.BookAppointmentRequest{
		DoctorID:  doctor.ID,
		StartTime: start,
	})
	require.NoError(t, err)

	// The window is half-open, so a booking at the exact end is free.
	_, err = svc.Book(context.Background(), bob.ID, &model.BookAppointmentRequest{
		DoctorID:  doctor.ID,
		StartTime: start.Add(30 * time.Minute),
	})
	assert.NoError(t, err)
}

func TestBook_DisjointDoctorsBothSucceed(t *testing.T) {
	svc, users, _ := newTestService(t, true)
	drA := users.add(model.RoleDoctor)
	drB := users.add(model.RoleDoctor)
	patient := users.add(model.RolePatient)

	start := futureSlot(24)
	_, err := svc.Book(context.Background(), patient.ID, &model.BookAppointmentRequest{
		DoctorID:  drA.ID,
		StartTime: start,
	})
	require.NoError(t, err)

	_, err = svc.Book(context.Background(), patient.ID, &model.BookAppointmentRequest{
		DoctorID:  drB.ID,
		StartTime: start,
	})
	assert.NoError(t, err)
}

func TestBook_CancelledAppointmentFreesSlot(t *testing.T) {
	svc, users, _ := newTestService(t, true)
	doctor := users.add(model.RoleDoctor)
	alice := users.add(model.RolePatient)
	bob := users.add(model.RolePatient)

	start := futureSlot(24)
	appt, err := svc.Book(context.Background(), alice.ID, &model.BookAppointmentRequest{
		DoctorID:  doctor.ID,
		StartTime: start,
	})
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), appt.ID, alice.ID, &model.UpdateAppointmentStatusRequest{
		Status: "CANCELLED",
	})
	require.NoError(t, err)

	_, err = svc.Book(context.Background(), bob.ID, &model.BookAppointmentRequest{
		DoctorID:  doctor.ID,
		StartTime: start,
	})
	assert.NoError(t, err)
}

func TestBook_NonDoctorTargetIsNotFound(t *testing.T) {
	svc, users, _ := newTestService(t, true)
	patient := users.add(model.RolePatient)
	other := users.add(model.RolePatient)

	_, err := svc.Book(context.Background(), patient.ID, &model.BookAppointmentRequest{
		DoctorID:  other.ID,
		StartTime: futureSlot(24),
	})
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))

	_, err = svc.Book(context.Background(), patient.ID, &model.BookAppointmentRequest{
		DoctorID:  uuid.New(),
		StartTime: futureSlot(24),
	})
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestBook_PastStartTimeRejected(t *testing.T) {
	svc, users, _ := newTestService(t, true)
	patient := users.add(model.RolePatient)
	doctor := users.add(model.RoleDoctor)

	_, err := svc.Book(context.Background(), patient.ID, &model.BookAppointmentRequest{
		DoctorID:  doctor.ID,
		StartTime: time.Now().Add(-time.Hour),
	})
	require.Error(t, err)
	assert.True(t, errors.IsInvalidArgument(err))
}

func TestUpdateStatus_ParticipantsOnly(t *testing.T) {
	svc, users, _ := newTestService(t, true)
	patient := users.add(model.RolePatient)
	doctor := users.add(model.RoleDoctor)
	stranger := users.add(model.RolePatient)

	appt, err := svc.Book(context.Background(), patient.ID, &model.BookAppointmentRequest{
		DoctorID:  doctor.ID,
		StartTime: futureSlot(24),
	})
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), appt.ID, stranger.ID, &model.UpdateAppointmentStatusRequest{
		Status: "CONFIRMED",
	})
	require.Error(t, err)
	assert.True(t, errors.IsForbidden(err))

	updated, err := svc.UpdateStatus(context.Background(), appt.ID, doctor.ID, &model.UpdateAppointmentStatusRequest{
		Status: "CONFIRMED",
	})
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusConfirmed, updated.Status)
}

func TestUpdateStatus_UnknownAppointment(t *testing.T) {
	svc, users, _ := newTestService(t, true)
	patient := users.add(model.RolePatient)

	_, err := svc.UpdateStatus(context.Background(), uuid.New(), patient.ID, &model.UpdateAppointmentStatusRequest{
		Status: "CONFIRMED",
	})
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestUpdateStatus_InvalidStatusLeavesRowUnchanged(t *testing.T) {
	svc, users, repo := newTestService(t, true)
	patient := users.add(model.RolePatient)
	doctor := users.add(model.RoleDoctor)

	appt, err := svc.Book(context.Background(), patient.ID, &model.BookAppointmentRequest{
		DoctorID:  doctor.ID,
		StartTime: futureSlot(24),
	})
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), appt.ID, patient.ID, &model.UpdateAppointmentStatusRequest{
		Status: "POSTPONED",
	})
	require.Error(t, err)
	assert.True(t, errors.IsInvalidArgument(err))

	stored, err := repo.Get(context.Background(), appt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusScheduled, stored.Status)
}

func TestUpdateStatus_TerminalStatusesAreFinalWhenStrict(t *testing.T) {
	svc, users, _ := newTestService(t, true)
	patient := users.add(model.RolePatient)
	doctor := users.add(model.RoleDoctor)

	appt, err := svc.Book(context.Background(), patient.ID, &model.BookAppointmentRequest{
		DoctorID:  doctor.ID,
		StartTime: futureSlot(24),
	})
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), appt.ID, doctor.ID, &model.UpdateAppointmentStatusRequest{
		Status: "COMPLETED",
	})
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), appt.ID, doctor.ID, &model.UpdateAppointmentStatusRequest{
		Status: "SCHEDULED",
	})
	require.Error(t, err)
	assert.True(t, errors.IsInvalidArgument(err))
}

func TestUpdateStatus_PermissiveModeAllowsReopening(t *testing.T) {
	svc, users, _ := newTestService(t, false)
	patient := users.add(model.RolePatient)
	doctor := users.add(model.RoleDoctor)

	appt, err := svc.Book(context.Background(), patient.ID, &model.BookAppointmentRequest{
		DoctorID:  doctor.ID,
		StartTime: futureSlot(24),
	})
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), appt.ID, doctor.ID, &model.UpdateAppointmentStatusRequest{
		Status: "CANCELLED",
	})
	require.NoError(t, err)

	updated, err := svc.UpdateStatus(context.Background(), appt.ID, doctor.ID, &model.UpdateAppointmentStatusRequest{
		Status: "SCHEDULED",
	})
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusScheduled, updated.Status)
}

func TestUpdateStatus_NotesOverwrite(t *testing.T) {
	svc, users, _ := newTestService(t, true)
	patient := users.add(model.RolePatient)
	doctor := users.add(model.RoleDoctor)

	appt, err := svc.Book(context.Background(), patient.ID, &model.BookAppointmentRequest{
		DoctorID:  doctor.ID,
		StartTime: futureSlot(24),
	})
	require.NoError(t, err)

	notes := "patient called ahead"
	updated, err := svc.UpdateStatus(context.Background(), appt.ID, doctor.ID, &model.UpdateAppointmentStatusRequest{
		Status: "CONFIRMED",
		Notes:  &notes,
	})
	require.NoError(t, err)
	assert.Equal(t, notes, updated.Notes)
	assert.True(t, updated.UpdatedAt.After(appt.UpdatedAt) || updated.UpdatedAt.Equal(appt.UpdatedAt))
}

func TestUpdateStatus_EmitsOutboxEvent(t *testing.T) {
	svc, users, repo := newTestService(t, true)
	patient := users.add(model.RolePatient)
	doctor := users.add(model.RoleDoctor)

	appt, err := svc.Book(context.Background(), patient.ID, &model.BookAppointmentRequest{
		DoctorID:  doctor.ID,
		StartTime: futureSlot(24),
	})
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), appt.ID, doctor.ID, &model.UpdateAppointmentStatusRequest{
		Status: "CONFIRMED",
	})
	require.NoError(t, err)

	require.Len(t, repo.events, 2)
	assert.Equal(t, model.EventAppointmentStatusChanged, repo.events[1].EventType)
}

func TestStats_ScopedToRequester(t *testing.T) {
	svc, users, _ := newTestService(t, true)
	doctor := users.add(model.RoleDoctor)
	alice := users.add(model.RolePatient)
	bob := users.add(model.RolePatient)

	_, err := svc.Book(context.Background(), alice.ID, &model.BookAppointmentRequest{
		DoctorID:  doctor.ID,
		StartTime: futureSlot(24),
	})
	require.NoError(t, err)
	_, err = svc.Book(context.Background(), bob.ID, &model.BookAppointmentRequest{
		DoctorID:  doctor.ID,
		StartTime: futureSlot(25),
	})
	require.NoError(t, err)

	aliceStats, err := svc.Stats(context.Background(), alice.ID, model.RolePatient)
	require.NoError(t, err)
	assert.Equal(t, int64(1), aliceStats.Total)
	assert.Equal(t, int64(1), aliceStats.Scheduled)

	drStats, err := svc.Stats(context.Background(), doctor.ID, model.RoleDoctor)
	require.NoError(t, err)
	assert.Equal(t, int64(2), drStats.Total)
}

func TestAvailableSlots_SkipsBookedWindows(t *testing.T) {
	svc, users, _ := newTestService(t, true)
	doctor := users.add(model.RoleDoctor)
	patient := users.add(model.RolePatient)

	day := time.Now().AddDate(0, 0, 1)
	booked := time.Date(day.Year(), day.Month(), day.Day(), 10, 0, 0, 0, day.Location())
	_, err := svc.Book(context.Background(), patient.ID, &model.BookAppointmentRequest{
		DoctorID:  doctor.ID,
		StartTime: booked,
	})
	require.NoError(t, err)

	slots, err := svc.AvailableSlots(context.Background(), doctor.ID, day, 30)
	require.NoError(t, err)
	require.NotEmpty(t, slots)
	for _, slot := range slots {
		assert.False(t, slot.Equal(booked), "booked slot must not be offered")
	}
}
