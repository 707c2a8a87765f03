package postgres

import (
	"github.com/jmoiron/sqlx"

	"github.com/smarthealth/healthconnect-api/internal/repository"
)

type userRepository struct {
	BaseRepository
}

type appointmentRepository struct {
	BaseRepository
}

type medicalRecordRepository struct {
	BaseRepository
}

type doctorRepository struct {
	BaseRepository
}

type departmentRepository struct {
	BaseRepository
}

type tokenRepository struct {
	BaseRepository
}

type outboxRepository struct {
	BaseRepository
}

func NewUserRepository(db *sqlx.DB) repository.UserRepository {
	return &userRepository{NewBaseRepository(db)}
}

func NewAppointmentRepository(db *sqlx.DB) repository.AppointmentRepository {
	return &appointmentRepository{NewBaseRepository(db)}
}

func NewMedicalRecordRepository(db *sqlx.DB) repository.MedicalRecordRepository {
	return &medicalRecordRepository{NewBaseRepository(db)}
}

func NewDoctorRepository(db *sqlx.DB) repository.DoctorRepository {
	return &doctorRepository{NewBaseRepository(db)}
}

func NewDepartmentRepository(db *sqlx.DB) repository.DepartmentRepository {
	return &departmentRepository{NewBaseRepository(db)}
}

func NewTokenRepository(db *sqlx.DB) repository.TokenRepository {
	return &tokenRepository{NewBaseRepository(db)}
}

func NewOutboxRepository(db *sqlx.DB) repository.OutboxRepository {
	return &outboxRepository{NewBaseRepository(db)}
}
