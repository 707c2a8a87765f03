package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/smarthealth/healthconnect-api/internal/model"
)

func (r *doctorRepository) Create(ctx context.Context, doctor *model.Doctor) error {
	query := `
		INSERT INTO doctors (
			id, first_name, last_name, email, phone_number, specialization,
			department, license_number, experience, education,
			consultation_fee, rating, patient_count, is_available,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	if doctor.ID == uuid.Nil {
		doctor.ID = uuid.New()
	}
	doctor.CreatedAt = time.Now()
	doctor.UpdatedAt = doctor.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		doctor.ID,
		doctor.FirstName,
		doctor.LastName,
		doctor.Email,
		doctor.PhoneNumber,
		doctor.Specialization,
		doctor.Department,
		doctor.LicenseNumber,
		doctor.Experience,
		doctor.Education,
		doctor.ConsultationFee,
		doctor.Rating,
		doctor.PatientCount,
		doctor.IsAvailable,
		doctor.CreatedAt,
		doctor.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create doctor: %w", err)
	}
	return nil
}

func (r *doctorRepository) Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	query := `SELECT * FROM doctors WHERE id = $1 AND deleted_at IS NULL`

	var doctor model.Doctor
	if err := r.db.GetContext(ctx, &doctor, query, id); err != nil {
		return nil, fmt.Errorf("failed to get doctor: %w", err)
	}
	return &doctor, nil
}

func (r *doctorRepository) Update(ctx context.Context, doctor *model.Doctor) error {
	query := `
		UPDATE doctors
		SET first_name = $1, last_name = $2, email = $3, phone_number = $4,
			specialization = $5, department = $6, license_number = $7,
			experience = $8, education = $9, consultation_fee = $10,
			rating = $11, is_available = $12, updated_at = $13
		WHERE id = $14 AND deleted_at IS NULL
	`
	doctor.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		doctor.FirstName,
		doctor.LastName,
		doctor.Email,
		doctor.PhoneNumber,
		doctor.Specialization,
		doctor.Department,
		doctor.LicenseNumber,
		doctor.Experience,
		doctor.Education,
		doctor.ConsultationFee,
		doctor.Rating,
		doctor.IsAvailable,
		doctor.UpdatedAt,
		doctor.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update doctor: %w", err)
	}
	return requireRowsAffected(result, "doctor")
}

func (r *doctorRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE doctors SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete doctor: %w", err)
	}
	return requireRowsAffected(result, "doctor")
}

func (r *doctorRepository) List(ctx context.Context) ([]*model.Doctor, error) {
	query := `SELECT * FROM doctors WHERE deleted_at IS NULL ORDER BY last_name ASC, first_name ASC`

	var doctors []*model.Doctor
	if err := r.db.SelectContext(ctx, &doctors, query); err != nil {
		return nil, fmt.Errorf("failed to list doctors: %w", err)
	}
	return doctors, nil
}

func (r *doctorRepository) AdjustPatientCount(ctx context.Context, id uuid.UUID, delta int) error {
	// GREATEST keeps the counter from going negative on repeated decrements.
	query := `
		UPDATE doctors
		SET patient_count = GREATEST(patient_count + $1, 0), updated_at = NOW()
		WHERE id = $2 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, delta, id)
	if err != nil {
		return fmt.Errorf("failed to adjust patient count: %w", err)
	}
	return requireRowsAffected(result, "doctor")
}

func (r *departmentRepository) Create(ctx context.Context, department *model.Department) error {
	query := `
		INSERT INTO departments (
			id, name, description, head, location, phone, email,
			capacity, services, operating_hours, doctor_count,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	if department.ID == uuid.Nil {
		department.ID = uuid.New()
	}
	department.CreatedAt = time.Now()
	department.UpdatedAt = department.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		department.ID,
		department.Name,
		department.Description,
		department.Head,
		department.Location,
		department.Phone,
		department.Email,
		department.Capacity,
		department.Services,
		department.OperatingHours,
		department.DoctorCount,
		department.CreatedAt,
		department.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create department: %w", err)
	}
	return nil
}

func (r *departmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Department, error) {
	query := `SELECT * FROM departments WHERE id = $1 AND deleted_at IS NULL`

	var department model.Department
	if err := r.db.GetContext(ctx, &department, query, id); err != nil {
		return nil, fmt.Errorf("failed to get department: %w", err)
	}
	return &department, nil
}

func (r *departmentRepository) Update(ctx context.Context, department *model.Department) error {
	query := `
		UPDATE departments
		SET name = $1, description = $2, head = $3, location = $4, phone = $5,
			email = $6, capacity = $7, services = $8, operating_hours = $9,
			updated_at = $10
		WHERE id = $11 AND deleted_at IS NULL
	`
	department.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		department.Name,
		department.Description,
		department.Head,
		department.Location,
		department.Phone,
		department.Email,
		department.Capacity,
		department.Services,
		department.OperatingHours,
		department.UpdatedAt,
		department.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update department: %w", err)
	}
	return requireRowsAffected(result, "department")
}

func (r *departmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE departments SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete department: %w", err)
	}
	return requireRowsAffected(result, "department")
}

func (r *departmentRepository) List(ctx context.Context) ([]*model.Department, error) {
	query := `SELECT * FROM departments WHERE deleted_at IS NULL ORDER BY name ASC`

	var departments []*model.Department
	if err := r.db.SelectContext(ctx, &departments, query); err != nil {
		return nil, fmt.Errorf("failed to list departments: %w", err)
	}
	return departments, nil
}

func (r *departmentRepository) AdjustDoctorCount(ctx context.Context, id uuid.UUID, delta int) error {
	query := `
		UPDATE departments
		SET doctor_count = GREATEST(doctor_count + $1, 0), updated_at = NOW()
		WHERE id = $2 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, delta, id)
	if err != nil {
		return fmt.Errorf("failed to adjust doctor count: %w", err)
	}
	return requireRowsAffected(result, "department")
}
