package directory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/smarthealth/healthconnect-api/internal/model"
	"github.com/smarthealth/healthconnect-api/internal/repository"
	"github.com/smarthealth/healthconnect-api/pkg/errors"
	"github.com/smarthealth/healthconnect-api/pkg/logger"
)

// Service manages the administrative doctor and department profiles.
type Service struct {
	doctorRepo     repository.DoctorRepository
	departmentRepo repository.DepartmentRepository
	logger         *logger.Logger
}

func NewService(
	doctorRepo repository.DoctorRepository,
	departmentRepo repository.DepartmentRepository,
	logger *logger.Logger,
) *Service {
	return &Service{
		doctorRepo:     doctorRepo,
		departmentRepo: departmentRepo,
		logger:         logger,
	}
}

func (s *Service) CreateDoctor(ctx context.Context, req *model.CreateDoctorRequest) (*model.Doctor, error) {
	if req.Rating < model.MinDoctorRating || req.Rating > model.MaxDoctorRating {
		return nil, errors.InvalidArgument("rating must be between 0 and 5", nil)
	}

	now := time.Now()
	doctor := &model.Doctor{
		Base: model.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Email:           req.Email,
		PhoneNumber:     req.PhoneNumber,
		Specialization:  req.Specialization,
		Department:      req.Department,
		LicenseNumber:   req.LicenseNumber,
		Experience:      req.Experience,
		Education:       req.Education,
		ConsultationFee: req.ConsultationFee,
		Rating:          req.Rating,
		IsAvailable:     true,
	}

	if err := s.doctorRepo.Create(ctx, doctor); err != nil {
		return nil, errors.Internal(err)
	}
	return doctor, nil
}

func (s *Service) GetDoctor(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	doctor, err := s.doctorRepo.Get(ctx, id)
	if err != nil {
		return nil, errors.NotFound("doctor", err)
	}
	return doctor, nil
}

func (s *Service) UpdateDoctor(ctx context.Context, id uuid.UUID, req *model.CreateDoctorRequest) (*model.Doctor, error) {
	if req.Rating < model.MinDoctorRating || req.Rating > model.MaxDoctorRating {
		return nil, errors.InvalidArgument("rating must be between 0 and 5", nil)
	}

	doctor, err := s.doctorRepo.Get(ctx, id)
	if err != nil {
		return nil, errors.NotFound("doctor", err)
	}

	doctor.FirstName = req.FirstName
	doctor.LastName = req.LastName
	doctor.Email = req.Email
	doctor.PhoneNumber = req.PhoneNumber
	doctor.Specialization = req.Specialization
	doctor.Department = req.Department
	doctor.LicenseNumber = req.LicenseNumber
	doctor.Experience = req.Experience
	doctor.Education = req.Education
	doctor.ConsultationFee = req.ConsultationFee
	doctor.Rating = req.Rating
	doctor.UpdatedAt = time.Now()

	if err := s.doctorRepo.Update(ctx, doctor); err != nil {
		return nil, errors.Internal(err)
	}
	return doctor, nil
}

func (s *Service) DeleteDoctor(ctx context.Context, id uuid.UUID) error {
	if err := s.doctorRepo.Delete(ctx, id); err != nil {
		return errors.NotFound("doctor", err)
	}
	return nil
}

func (s *Service) ListDoctors(ctx context.Context) ([]*model.Doctor, error) {
	doctors, err := s.doctorRepo.List(ctx)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return doctors, nil
}

// AdjustDoctorPatients moves the patient counter; it never drops below zero.
func (s *Service) AdjustDoctorPatients(ctx context.Context, id uuid.UUID, delta int) error {
	if delta == 0 {
		return errors.InvalidArgument("delta must be non-zero", nil)
	}
	if err := s.doctorRepo.AdjustPatientCount(ctx, id, delta); err != nil {
		return errors.NotFound("doctor", err)
	}
	return nil
}

func (s *Service) CreateDepartment(ctx context.Context, req *model.CreateDepartmentRequest) (*model.Department, error) {
	if req.Capacity < model.MinDepartmentCapacity {
		return nil, errors.InvalidArgument("capacity must be at least 1", nil)
	}

	now := time.Now()
	dept := &model.Department{
		Base: model.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Name:           req.Name,
		Description:    req.Description,
		Head:           req.Head,
		Location:       req.Location,
		Phone:          req.Phone,
		Email:          req.Email,
		Capacity:       req.Capacity,
		Services:       req.Services,
		OperatingHours: req.OperatingHours,
	}

	if err := s.departmentRepo.Create(ctx, dept); err != nil {
		return nil, errors.Internal(err)
	}
	return dept, nil
}

func (s *Service) GetDepartment(ctx context.Context, id uuid.UUID) (*model.Department, error) {
	dept, err := s.departmentRepo.Get(ctx, id)
	if err != nil {
		return nil, errors.NotFound("department", err)
	}
	return dept, nil
}

func (s *Service) UpdateDepartment(ctx context.Context, id uuid.UUID, req *model.CreateDepartmentRequest) (*model.Department, error) {
	if req.Capacity < model.MinDepartmentCapacity {
		return nil, errors.InvalidArgument("capacity must be at least 1", nil)
	}

	dept, err := s.departmentRepo.Get(ctx, id)
	if err != nil {
		return nil, errors.NotFound("department", err)
	}

	dept.Name = req.Name
	dept.Description = req.Description
	dept.Head = req.Head
	dept.Location = req.Location
	dept.Phone = req.Phone
	dept.Email = req.Email
	dept.Capacity = req.Capacity
	dept.Services = req.Services
	dept.OperatingHours = req.OperatingHours
	dept.UpdatedAt = time.Now()

	if err := s.departmentRepo.Update(ctx, dept); err != nil {
		return nil, errors.Internal(err)
	}
	return dept, nil
}

func (s *Service) DeleteDepartment(ctx context.Context, id uuid.UUID) error {
	if err := s.departmentRepo.Delete(ctx, id); err != nil {
		return errors.NotFound("department", err)
	}
	return nil
}

func (s *Service) ListDepartments(ctx context.Context) ([]*model.Department, error) {
	depts, err := s.departmentRepo.List(ctx)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return depts, nil
}

// AdjustDepartmentDoctors moves the doctor counter; it never drops below zero.
func (s *Service) AdjustDepartmentDoctors(ctx context.Context, id uuid.UUID, delta int) error {
	if delta == 0 {
		return errors.InvalidArgument("delta must be non-zero", nil)
	}
	if err := s.departmentRepo.AdjustDoctorCount(ctx, id, delta); err != nil {
		return errors.NotFound("department", err)
	}
	return nil
}
