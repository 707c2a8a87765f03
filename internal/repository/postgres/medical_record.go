package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/smarthealth/healthconnect-api/internal/model"
)

const recordColumns = `
	id, patient_id, doctor_id, appointment_id, title, type,
	diagnosis, symptoms, treatment, prescription, notes,
	vital_signs, test_results, allergies, is_confidential, follow_up_date,
	created_at, updated_at, deleted_at
`

func (r *medicalRecordRepository) Create(ctx context.Context, record *model.MedicalRecord) error {
	query := `
		INSERT INTO medical_records (
			id, patient_id, doctor_id, appointment_id, title, type,
			diagnosis, symptoms, treatment, prescription, notes,
			vital_signs, test_results, allergies, is_confidential, follow_up_date,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	record.CreatedAt = time.Now()
	record.UpdatedAt = record.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		record.ID,
		record.PatientID,
		record.DoctorID,
		record.AppointmentID,
		record.Title,
		record.Type,
		record.Diagnosis,
		record.Symptoms,
		record.Treatment,
		record.Prescription,
		record.Notes,
		record.VitalSigns,
		record.TestResults,
		record.Allergies,
		record.IsConfidential,
		record.FollowUpDate,
		record.CreatedAt,
		record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create medical record: %w", err)
	}
	return nil
}

func (r *medicalRecordRepository) Get(ctx context.Context, id uuid.UUID) (*model.MedicalRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM medical_records WHERE id = $1 AND deleted_at IS NULL`

	var record model.MedicalRecord
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		return nil, fmt.Errorf("failed to get medical record: %w", err)
	}
	return &record, nil
}

func (r *medicalRecordRepository) Update(ctx context.Context, record *model.MedicalRecord) error {
	query := `
		UPDATE medical_records
		SET title = $1, type = $2, diagnosis = $3, symptoms = $4, treatment = $5,
			prescription = $6, notes = $7, vital_signs = $8, test_results = $9,
			allergies = $10, is_confidential = $11, follow_up_date = $12, updated_at = $13
		WHERE id = $14 AND deleted_at IS NULL
	`
	record.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		record.Title,
		record.Type,
		record.Diagnosis,
		record.Symptoms,
		record.Treatment,
		record.Prescription,
		record.Notes,
		record.VitalSigns,
		record.TestResults,
		record.Allergies,
		record.IsConfidential,
		record.FollowUpDate,
		record.UpdatedAt,
		record.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update medical record: %w", err)
	}
	return requireRowsAffected(result, "medical record")
}

func (r *medicalRecordRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE medical_records SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete medical record: %w", err)
	}
	return requireRowsAffected(result, "medical record")
}

func (r *medicalRecordRepository) ListByPatient(ctx context.Context, patientID uuid.UUID, filters *model.RecordFilters) ([]*model.MedicalRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM medical_records WHERE patient_id = $1 AND deleted_at IS NULL`
	args := []interface{}{patientID}
	return r.list(ctx, query, args, filters)
}

func (r *medicalRecordRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID, filters *model.RecordFilters) ([]*model.MedicalRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM medical_records WHERE doctor_id = $1 AND deleted_at IS NULL`
	args := []interface{}{doctorID}
	return r.list(ctx, query, args, filters)
}

func (r *medicalRecordRepository) list(ctx context.Context, query string, args []interface{}, filters *model.RecordFilters) ([]*model.MedicalRecord, error) {
	if filters != nil {
		if filters.Type != "" {
			query += fmt.Sprintf(" AND type = $%d", len(args)+1)
			args = append(args, filters.Type)
		}
		if filters.ExcludeConfidential {
			query += " AND is_confidential = FALSE"
		}
		if !filters.From.IsZero() {
			query += fmt.Sprintf(" AND created_at >= $%d", len(args)+1)
			args = append(args, filters.From)
		}
		if !filters.To.IsZero() {
			query += fmt.Sprintf(" AND created_at <= $%d", len(args)+1)
			args = append(args, filters.To)
		}
		if filters.SearchTerm != "" {
			query += fmt.Sprintf(
				" AND (title ILIKE $%d OR diagnosis ILIKE $%d OR symptoms ILIKE $%d)",
				len(args)+1, len(args)+1, len(args)+1,
			)
			args = append(args, "%"+filters.SearchTerm+"%")
		}
	}

	query += " ORDER BY created_at DESC"

	if filters != nil && filters.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", len(args)+1)
		args = append(args, filters.Limit)
	}

	var records []*model.MedicalRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list medical records: %w", err)
	}
	return records, nil
}

func (r *medicalRecordRepository) Stats(ctx context.Context, patientID, doctorID uuid.UUID) (*model.RecordStats, error) {
	query := `SELECT type, COUNT(*) AS count FROM medical_records WHERE deleted_at IS NULL`
	args := []interface{}{}

	if patientID != uuid.Nil {
		query += fmt.Sprintf(" AND patient_id = $%d", len(args)+1)
		args = append(args, patientID)
	}
	if doctorID != uuid.Nil {
		query += fmt.Sprintf(" AND doctor_id = $%d", len(args)+1)
		args = append(args, doctorID)
	}

	query += " GROUP BY type"

	rows := []struct {
		Type  model.RecordType `db:"type"`
		Count int64            `db:"count"`
	}{}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get record stats: %w", err)
	}

	stats := &model.RecordStats{ByType: make(map[model.RecordType]int64)}
	for _, row := range rows {
		stats.ByType[row.Type] = row.Count
		stats.Total += row.Count
	}
	return stats, nil
}
