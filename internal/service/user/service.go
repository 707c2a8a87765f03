package user

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/smarthealth/healthconnect-api/internal/model"
	"github.com/smarthealth/healthconnect-api/internal/repository"
	"github.com/smarthealth/healthconnect-api/pkg/errors"
	"github.com/smarthealth/healthconnect-api/pkg/logger"
)

type Service struct {
	userRepo repository.UserRepository
	logger   *logger.Logger
}

func NewService(userRepo repository.UserRepository, logger *logger.Logger) *Service {
	return &Service{userRepo: userRepo, logger: logger}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.userRepo.Get(ctx, id)
	if err != nil {
		return nil, errors.NotFound("user", err)
	}
	return user, nil
}

// UpdateProfile applies the mutable profile fields. Role and credentials are
// not reachable through this path.
func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, req *model.UpdateProfileRequest) (*model.User, error) {
	user, err := s.userRepo.Get(ctx, id)
	if err != nil {
		return nil, errors.NotFound("user", err)
	}

	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Phone != nil {
		user.Phone = req.Phone
	}
	if req.DateOfBirth != nil {
		user.DateOfBirth = req.DateOfBirth
	}
	if req.Gender != nil {
		user.Gender = req.Gender
	}
	if req.Address != nil {
		user.Address = req.Address
	}
	if req.Specialization != nil {
		if user.Role != model.RoleDoctor {
			return nil, errors.InvalidArgument("specialization applies to doctors only", nil)
		}
		user.Specialization = req.Specialization
	}
	user.UpdatedAt = time.Now()

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, errors.Internal(err)
	}
	return user, nil
}

// Doctors lists the active doctor directory in its public projection.
func (s *Service) Doctors(ctx context.Context) ([]model.PublicUser, error) {
	users, err := s.userRepo.List(ctx, &model.UserFilters{
		Role:       model.RoleDoctor,
		ActiveOnly: true,
	})
	if err != nil {
		return nil, errors.Internal(err)
	}
	out := make([]model.PublicUser, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	return out, nil
}

// Patients lists active patients for clinical staff.
func (s *Service) Patients(ctx context.Context) ([]model.PublicUser, error) {
	users, err := s.userRepo.List(ctx, &model.UserFilters{
		Role:       model.RolePatient,
		ActiveOnly: true,
	})
	if err != nil {
		return nil, errors.Internal(err)
	}
	out := make([]model.PublicUser, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	return out, nil
}

// Lookup returns a single user's public projection.
func (s *Service) Lookup(ctx context.Context, id uuid.UUID) (*model.PublicUser, error) {
	user, err := s.userRepo.Get(ctx, id)
	if err != nil {
		return nil, errors.NotFound("user", err)
	}
	pub := user.Public()
	return &pub, nil
}

// Search finds users by name or username, optionally narrowed by role.
func (s *Service) Search(ctx context.Context, term string, role model.Role) ([]model.PublicUser, error) {
	if term == "" {
		return nil, errors.InvalidArgument("search term is required", nil)
	}
	users, err := s.userRepo.List(ctx, &model.UserFilters{
		Role:       role,
		ActiveOnly: true,
		SearchTerm: term,
	})
	if err != nil {
		return nil, errors.Internal(err)
	}
	out := make([]model.PublicUser, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	return out, nil
}

// List returns full user rows for the admin surface.
func (s *Service) List(ctx context.Context, filters *model.UserFilters) ([]*model.User, error) {
	if filters == nil {
		filters = &model.UserFilters{}
	}
	users, err := s.userRepo.List(ctx, filters)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return users, nil
}

// SetActive toggles account access. Deactivation invalidates logins but keeps
// history intact.
func (s *Service) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	if err := s.userRepo.SetActive(ctx, id, active); err != nil {
		return errors.NotFound("user", err)
	}
	return nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.userRepo.Delete(ctx, id); err != nil {
		return errors.NotFound("user", err)
	}
	return nil
}

// Stats is the admin user census.
func (s *Service) Stats(ctx context.Context) (*model.UserStats, error) {
	total, err := s.userRepo.Count(ctx)
	if err != nil {
		return nil, errors.Internal(err)
	}
	patients, err := s.userRepo.CountActiveByRole(ctx, model.RolePatient)
	if err != nil {
		return nil, errors.Internal(err)
	}
	doctors, err := s.userRepo.CountActiveByRole(ctx, model.RoleDoctor)
	if err != nil {
		return nil, errors.Internal(err)
	}
	admins, err := s.userRepo.CountActiveByRole(ctx, model.RoleAdmin)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return &model.UserStats{
		TotalUsers:     total,
		ActivePatients: patients,
		ActiveDoctors:  doctors,
		ActiveAdmins:   admins,
	}, nil
}
