package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type RecordType string

const (
	RecordTypeConsultation RecordType = "CONSULTATION"
	RecordTypeLabResult    RecordType = "LAB_RESULT"
	RecordTypePrescription RecordType = "PRESCRIPTION"
	RecordTypeVaccination  RecordType = "VACCINATION"
	RecordTypeSurgery      RecordType = "SURGERY"
	RecordTypeEmergency    RecordType = "EMERGENCY"
	RecordTypeFollowUp     RecordType = "FOLLOW_UP"
)

// ParseRecordType normalizes and validates a record type string.
func ParseRecordType(s string) (RecordType, error) {
	t := RecordType(strings.ToUpper(strings.TrimSpace(s)))
	switch t {
	case RecordTypeConsultation, RecordTypeLabResult, RecordTypePrescription,
		RecordTypeVaccination, RecordTypeSurgery, RecordTypeEmergency, RecordTypeFollowUp:
		return t, nil
	default:
		return "", fmt.Errorf("unknown record type %q", s)
	}
}

type MedicalRecord struct {
	Base
	PatientID      uuid.UUID  `db:"patient_id" json:"patient_id"`
	DoctorID       uuid.UUID  `db:"doctor_id" json:"doctor_id"`
	AppointmentID  *uuid.UUID `db:"appointment_id" json:"appointment_id,omitempty"`
	Title          string     `db:"title" json:"title"`
	Type           RecordType `db:"type" json:"type"`
	Diagnosis      string     `db:"diagnosis" json:"diagnosis,omitempty"`
	Symptoms       string     `db:"symptoms" json:"symptoms,omitempty"`
	Treatment      string     `db:"treatment" json:"treatment,omitempty"`
	Prescription   string     `db:"prescription" json:"prescription,omitempty"`
	Notes          string     `db:"notes" json:"notes,omitempty"`
	VitalSigns     string     `db:"vital_signs" json:"vital_signs,omitempty"`
	TestResults    string     `db:"test_results" json:"test_results,omitempty"`
	Allergies      string     `db:"allergies" json:"allergies,omitempty"`
	IsConfidential bool       `db:"is_confidential" json:"is_confidential"`
	FollowUpDate   *time.Time `db:"follow_up_date" json:"follow_up_date,omitempty"`
}

type CreateMedicalRecordRequest struct {
	PatientID      uuid.UUID  `json:"patient_id" binding:"required"`
	AppointmentID  *uuid.UUID `json:"appointment_id"`
	Title          string     `json:"title" binding:"required,max=100"`
	Type           string     `json:"type" binding:"required"`
	Diagnosis      string     `json:"diagnosis" binding:"max=2000"`
	Symptoms       string     `json:"symptoms" binding:"max=2000"`
	Treatment      string     `json:"treatment" binding:"max=2000"`
	Prescription   string     `json:"prescription" binding:"max=2000"`
	Notes          string     `json:"notes" binding:"max=1000"`
	VitalSigns     string     `json:"vital_signs" binding:"max=500"`
	TestResults    string     `json:"test_results" binding:"max=500"`
	Allergies      string     `json:"allergies" binding:"max=500"`
	IsConfidential bool       `json:"is_confidential"`
	FollowUpDate   *time.Time `json:"follow_up_date"`
}

type UpdateMedicalRecordRequest struct {
	Title          *string    `json:"title" binding:"omitempty,max=100"`
	Type           *string    `json:"type"`
	Diagnosis      *string    `json:"diagnosis" binding:"omitempty,max=2000"`
	Symptoms       *string    `json:"symptoms" binding:"omitempty,max=2000"`
	Treatment      *string    `json:"treatment" binding:"omitempty,max=2000"`
	Prescription   *string    `json:"prescription" binding:"omitempty,max=2000"`
	Notes          *string    `json:"notes" binding:"omitempty,max=1000"`
	VitalSigns     *string    `json:"vital_signs" binding:"omitempty,max=500"`
	TestResults    *string    `json:"test_results" binding:"omitempty,max=500"`
	Allergies      *string    `json:"allergies" binding:"omitempty,max=500"`
	IsConfidential *bool      `json:"is_confidential"`
	FollowUpDate   *time.Time `json:"follow_up_date"`
}

type RecordFilters struct {
	Type                RecordType
	From                time.Time
	To                  time.Time
	ExcludeConfidential bool
	SearchTerm          string
	Limit               int
}

// RecordStats are per-requester medical record counts.
type RecordStats struct {
	Total  int64                `json:"total"`
	ByType map[RecordType]int64 `json:"by_type"`
}
