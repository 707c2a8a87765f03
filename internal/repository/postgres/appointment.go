package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/smarthealth/healthconnect-api/internal/model"
	"github.com/smarthealth/healthconnect-api/internal/repository"
)

const appointmentColumns = `
	id, patient_id, doctor_id, start_time, duration_minutes,
	type, reason, notes, status, is_video_consultation,
	created_at, updated_at, deleted_at
`

// overlapPredicate matches rows whose half-open [start_time, start_time +
// duration) window intersects [$2, $3) and whose status still blocks the slot.
const overlapPredicate = `
	doctor_id = $1
	AND status NOT IN ('CANCELLED', 'NO_SHOW')
	AND deleted_at IS NULL
	AND start_time < $3
	AND start_time + duration_minutes * INTERVAL '1 minute' > $2
`

func (r *appointmentRepository) CreateIfSlotFree(ctx context.Context, appointment *model.Appointment, event *model.OutboxEvent) error {
	if appointment.ID == uuid.Nil {
		appointment.ID = uuid.New()
	}
	// Callers that publish the appointment stamp it before marshalling, so
	// the stored row and the event payload carry the same timestamps.
	if appointment.CreatedAt.IsZero() {
		appointment.CreatedAt = time.Now()
		appointment.UpdatedAt = appointment.CreatedAt
	}

	// Postgres aborts the losing side of two concurrent serializable
	// bookings with SQLSTATE 40001. One retry re-runs the check on a fresh
	// snapshot: a genuine overlap now reads as taken, a false positive
	// books normally.
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		err = r.createIfSlotFreeTx(ctx, appointment, event)
		if !isSerializationFailure(err) {
			return err
		}
	}
	return fmt.Errorf("booking lost a serializable race: %w", repository.ErrSlotTaken)
}

func (r *appointmentRepository) createIfSlotFreeTx(ctx context.Context, appointment *model.Appointment, event *model.OutboxEvent) error {
	return r.WithSerializableTx(ctx, func(tx *sqlx.Tx) error {
		var taken bool
		checkQuery := `SELECT EXISTS (SELECT 1 FROM appointments WHERE ` + overlapPredicate + `)`
		if err := tx.GetContext(ctx, &taken, checkQuery,
			appointment.DoctorID, appointment.StartTime, appointment.EndTime()); err != nil {
			return fmt.Errorf("failed to check conflicts: %w", err)
		}
		if taken {
			return repository.ErrSlotTaken
		}

		insertQuery := `
			INSERT INTO appointments (
				id, patient_id, doctor_id, start_time, duration_minutes,
				type, reason, notes, status, is_video_consultation,
				created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		`
		if _, err := tx.ExecContext(ctx, insertQuery,
			appointment.ID,
			appointment.PatientID,
			appointment.DoctorID,
			appointment.StartTime,
			appointment.DurationMinutes,
			appointment.Type,
			appointment.Reason,
			appointment.Notes,
			appointment.Status,
			appointment.IsVideoConsultation,
			appointment.CreatedAt,
			appointment.UpdatedAt,
		); err != nil {
			return fmt.Errorf("failed to create appointment: %w", err)
		}

		if event != nil {
			return insertOutboxEvent(ctx, tx, event)
		}
		return nil
	})
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1 AND deleted_at IS NULL`

	var appointment model.Appointment
	if err := r.db.GetContext(ctx, &appointment, query, id); err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return &appointment, nil
}

func (r *appointmentRepository) Update(ctx context.Context, appointment *model.Appointment, event *model.OutboxEvent) error {
	appointment.UpdatedAt = time.Now()

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			UPDATE appointments
			SET start_time = $1, duration_minutes = $2, type = $3, reason = $4,
				notes = $5, status = $6, is_video_consultation = $7, updated_at = $8
			WHERE id = $9 AND deleted_at IS NULL
		`
		result, err := tx.ExecContext(ctx, query,
			appointment.StartTime,
			appointment.DurationMinutes,
			appointment.Type,
			appointment.Reason,
			appointment.Notes,
			appointment.Status,
			appointment.IsVideoConsultation,
			appointment.UpdatedAt,
			appointment.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update appointment: %w", err)
		}
		if err := requireRowsAffected(result, "appointment"); err != nil {
			return err
		}

		if event != nil {
			return insertOutboxEvent(ctx, tx, event)
		}
		return nil
	})
}

func (r *appointmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE appointments SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete appointment: %w", err)
	}
	return requireRowsAffected(result, "appointment")
}

func (r *appointmentRepository) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE deleted_at IS NULL`
	args := []interface{}{}

	if filters != nil {
		if filters.PatientID != uuid.Nil {
			query += fmt.Sprintf(" AND patient_id = $%d", len(args)+1)
			args = append(args, filters.PatientID)
		}
		if filters.DoctorID != uuid.Nil {
			query += fmt.Sprintf(" AND doctor_id = $%d", len(args)+1)
			args = append(args, filters.DoctorID)
		}
		if filters.Status != "" {
			query += fmt.Sprintf(" AND status = $%d", len(args)+1)
			args = append(args, filters.Status)
		}
		if !filters.From.IsZero() {
			query += fmt.Sprintf(" AND start_time >= $%d", len(args)+1)
			args = append(args, filters.From)
		}
		if !filters.To.IsZero() {
			query += fmt.Sprintf(" AND start_time < $%d", len(args)+1)
			args = append(args, filters.To)
		}
	}

	query += " ORDER BY start_time ASC"

	if filters != nil && filters.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", len(args)+1)
		args = append(args, filters.Limit)
	}

	var appointments []*model.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) FindOverlapping(ctx context.Context, doctorID uuid.UUID, start, end time.Time) ([]*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE ` + overlapPredicate + `
		ORDER BY start_time ASC
	`
	var appointments []*model.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query, doctorID, start, end); err != nil {
		return nil, fmt.Errorf("failed to find overlapping appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) Count(ctx context.Context, filters *model.AppointmentFilters) (int64, error) {
	query := `SELECT COUNT(*) FROM appointments WHERE deleted_at IS NULL`
	args := []interface{}{}

	if filters != nil {
		if filters.PatientID != uuid.Nil {
			query += fmt.Sprintf(" AND patient_id = $%d", len(args)+1)
			args = append(args, filters.PatientID)
		}
		if filters.DoctorID != uuid.Nil {
			query += fmt.Sprintf(" AND doctor_id = $%d", len(args)+1)
			args = append(args, filters.DoctorID)
		}
		if filters.Status != "" {
			query += fmt.Sprintf(" AND status = $%d", len(args)+1)
			args = append(args, filters.Status)
		}
		if !filters.From.IsZero() {
			query += fmt.Sprintf(" AND start_time >= $%d", len(args)+1)
			args = append(args, filters.From)
		}
		if !filters.To.IsZero() {
			query += fmt.Sprintf(" AND start_time < $%d", len(args)+1)
			args = append(args, filters.To)
		}
	}

	var count int64
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("failed to count appointments: %w", err)
	}
	return count, nil
}
