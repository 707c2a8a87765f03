package user

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smarthealth/healthconnect-api/internal/model"
	"github.com/smarthealth/healthconnect-api/pkg/errors"
	"github.com/smarthealth/healthconnect-api/pkg/logger"
)

type fakeUserRepo struct {
	users map[uuid.UUID]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*model.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, u *model.User) error {
	r.users[u.ID] = u
	return nil
}

func (r *fakeUserRepo) Get(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s not found", id)
	}
	return u, nil
}

func (r *fakeUserRepo) GetByUsernameOrEmail(_ context.Context, v string) (*model.User, error) {
	for _, u := range r.users {
		if u.Username == v || u.Email == v {
			return u, nil
		}
	}
	return nil, fmt.Errorf("user %s not found", v)
}

func (r *fakeUserRepo) Update(_ context.Context, u *model.User) error {
	if _, ok := r.users[u.ID]; !ok {
		return fmt.Errorf("user %s not found", u.ID)
	}
	r.users[u.ID] = u
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.users[id]; !ok {
		return fmt.Errorf("user %s not found", id)
	}
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) List(_ context.Context, filters *model.UserFilters) ([]*model.User, error) {
	var out []*model.User
	for _, u := range r.users {
		if filters.Role != "" && u.Role != filters.Role {
			continue
		}
		if filters.ActiveOnly && !u.IsActive {
			continue
		}
		if filters.SearchTerm != "" {
			term := strings.ToLower(filters.SearchTerm)
			haystack := strings.ToLower(u.Username + " " + u.FirstName + " " + u.LastName)
			if !strings.Contains(haystack, term) {
				continue
			}
		}
		out = append(out, u)
	}
	return out, nil
}

func (r *fakeUserRepo) ExistsByUsername(_ context.Context, username string) (bool, error) {
	for _, u := range r.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeUserRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	for _, u := range r.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeUserRepo) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	u, ok := r.users[id]
	if !ok {
		return fmt.Errorf("user %s not found", id)
	}
	u.IsActive = active
	return nil
}

func (r *fakeUserRepo) UpdateEmailVerified(_ context.Context, id uuid.UUID, verified bool) error {
	u, ok := r.users[id]
	if !ok {
		return fmt.Errorf("user %s not found", id)
	}
	u.EmailVerified = verified
	return nil
}

func (r *fakeUserRepo) Count(_ context.Context) (int64, error) {
	return int64(len(r.users)), nil
}

func (r *fakeUserRepo) CountActiveByRole(_ context.Context, role model.Role) (int64, error) {
	var n int64
	for _, u := range r.users {
		if u.IsActive && u.Role == role {
			n++
		}
	}
	return n, nil
}

func testLogger() *logger.Logger {
	return logger.NewLogger(&logger.Config{Level: logger.ErrorLevel})
}

func seedUser(repo *fakeUserRepo, role model.Role, firstName string, active bool) *model.User {
	u := &model.User{
		Base: model.Base{
			ID:        uuid.New(),
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		},
		Username:  strings.ToLower(firstName),
		Email:     strings.ToLower(firstName) + "@example.com",
		Role:      role,
		FirstName: firstName,
		LastName:  "Test",
		IsActive:  active,
	}
	repo.users[u.ID] = u
	return u
}

func TestUpdateProfile_AppliesOnlyProvidedFields(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewService(repo, testLogger())
	u := seedUser(repo, model.RolePatient, "Alice", true)

	first := "Alicia"
	phone := "+15551234"
	updated, err := svc.UpdateProfile(context.Background(), u.ID, &model.UpdateProfileRequest{
		FirstName: &first,
		Phone:     &phone,
	})
	require.NoError(t, err)

	assert.Equal(t, "Alicia", updated.FirstName)
	assert.Equal(t, "Test", updated.LastName)
	require.NotNil(t, updated.Phone)
	assert.Equal(t, "+15551234", *updated.Phone)
}

func TestUpdateProfile_SpecializationRequiresDoctor(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewService(repo, testLogger())
	patient := seedUser(repo, model.RolePatient, "Bob", true)
	doctor := seedUser(repo, model.RoleDoctor, "Carol", true)

	spec := "cardiology"
	_, err := svc.UpdateProfile(context.Background(), patient.ID, &model.UpdateProfileRequest{
		Specialization: &spec,
	})
	assert.Error(t, err)

	updated, err := svc.UpdateProfile(context.Background(), doctor.ID, &model.UpdateProfileRequest{
		Specialization: &spec,
	})
	require.NoError(t, err)
	require.NotNil(t, updated.Specialization)
	assert.Equal(t, "cardiology", *updated.Specialization)
}

func TestDoctors_ListsOnlyActiveDoctors(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewService(repo, testLogger())
	active := seedUser(repo, model.RoleDoctor, "Dana", true)
	seedUser(repo, model.RoleDoctor, "Evan", false)
	seedUser(repo, model.RolePatient, "Fay", true)

	doctors, err := svc.Doctors(context.Background())
	require.NoError(t, err)
	require.Len(t, doctors, 1)
	assert.Equal(t, active.ID, doctors[0].ID)
	assert.Equal(t, model.RoleDoctor, doctors[0].Role)
}

func TestPatients_ListsOnlyActivePatients(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewService(repo, testLogger())
	active := seedUser(repo, model.RolePatient, "Gina", true)
	seedUser(repo, model.RolePatient, "Hank", false)
	seedUser(repo, model.RoleDoctor, "Ivy", true)

	patients, err := svc.Patients(context.Background())
	require.NoError(t, err)
	require.Len(t, patients, 1)
	assert.Equal(t, active.ID, patients[0].ID)
	assert.Equal(t, model.RolePatient, patients[0].Role)
}

func TestLookup_ReturnsPublicProjection(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewService(repo, testLogger())
	u := seedUser(repo, model.RolePatient, "Jill", true)

	pub, err := svc.Lookup(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.ID, pub.ID)
	assert.Equal(t, "Jill Test", pub.Name)

	_, err = svc.Lookup(context.Background(), uuid.New())
	assert.True(t, errors.IsNotFound(err))
}

func TestSearch_RequiresTerm(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewService(repo, testLogger())

	_, err := svc.Search(context.Background(), "", "")
	assert.Error(t, err)
}

func TestSearch_MatchesNameAndRole(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewService(repo, testLogger())
	doc := seedUser(repo, model.RoleDoctor, "Grace", true)
	seedUser(repo, model.RolePatient, "Graham", true)

	results, err := svc.Search(context.Background(), "gra", model.RoleDoctor)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, doc.ID, results[0].ID)
}

func TestSetActive_UnknownUser(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewService(repo, testLogger())

	err := svc.SetActive(context.Background(), uuid.New(), false)
	assert.Error(t, err)
}

func TestStats_CountsActiveByRole(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewService(repo, testLogger())
	seedUser(repo, model.RolePatient, "Hank", true)
	seedUser(repo, model.RolePatient, "Iris", false)
	seedUser(repo, model.RoleDoctor, "Jude", true)
	seedUser(repo, model.RoleAdmin, "Kira", true)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.TotalUsers)
	assert.Equal(t, int64(1), stats.ActivePatients)
	assert.Equal(t, int64(1), stats.ActiveDoctors)
	assert.Equal(t, int64(1), stats.ActiveAdmins)
}
