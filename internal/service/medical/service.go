package medical

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
	recordRepo repository.MedicalRecordRepository
	userRepo   repository.UserRepository
	logger     *logger.Logger
}

func NewService(
	recordRepo repository.MedicalRecordRepository,
	userRepo repository.UserRepository,
	logger *logger.Logger,
) *Service {
	return &Service{
		recordRepo: recordRepo,
		userRepo:   userRepo,
		logger:     logger,
	}
}

// Create stores a record authored by the given doctor.
func (s *Service) Create(ctx context.Context, doctorID uuid.UUID, req *model.CreateMedicalRecordRequest) (*model.MedicalRecord, error) {
	recordType, err := model.ParseRecordType(req.Type)
	if err != nil {
		return nil, errors.InvalidArgument("invalid record type", err)
	}

	patient, err := s.userRepo.Get(ctx, req.PatientID)
	if err != nil || patient.Role != model.RolePatient {
		return nil, errors.NotFound("patient", err)
	}

	now := time.Now()
	record := &model.MedicalRecord{
		Base: model.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		PatientID:      req.PatientID,
		DoctorID:       doctorID,
		AppointmentID:  req.AppointmentID,
		Title:          req.Title,
		Type:           recordType,
		Diagnosis:      req.Diagnosis,
		Symptoms:       req.Symptoms,
		Treatment:      req.Treatment,
		Prescription:   req.Prescription,
		Notes:          req.Notes,
		VitalSigns:     req.VitalSigns,
		TestResults:    req.TestResults,
		Allergies:      req.Allergies,
		IsConfidential: req.IsConfidential,
		FollowUpDate:   req.FollowUpDate,
	}

	if err := s.recordRepo.Create(ctx, record); err != nil {
		return nil, errors.Internal(err)
	}
	return record, nil
}

// Get returns a record to its patient, its authoring doctor, or an admin.
// Confidential records of other patients are hidden from doctors who did not
// author them by the listing paths; direct access follows the same rule.
func (s *Service) Get(ctx context.Context, recordID, requesterID uuid.UUID, requesterRole model.Role) (*model.MedicalRecord, error) {
	record, err := s.recordRepo.Get(ctx, recordID)
	if err != nil {
		return nil, errors.NotFound("medical record", err)
	}

	switch {
	case requesterRole == model.RoleAdmin:
	case record.PatientID == requesterID:
	case record.DoctorID == requesterID:
	case requesterRole == model.RoleDoctor && !record.IsConfidential:
	default:
		return nil, errors.Forbidden("no access to this record")
	}
	return record, nil
}

// Update modifies a record. Only the authoring doctor may change it.
func (s *Service) Update(ctx context.Context, recordID, doctorID uuid.UUID, req *model.UpdateMedicalRecordRequest) (*model.MedicalRecord, error) {
	record, err := s.recordRepo.Get(ctx, recordID)
	if err != nil {
		return nil, errors.NotFound("medical record", err)
	}
	if record.DoctorID != doctorID {
		return nil, errors.Forbidden("only the authoring doctor may update this record")
	}

	if req.Type != nil {
		recordType, err := model.ParseRecordType(*req.Type)
		if err != nil {
			return nil, errors.InvalidArgument("invalid record type", err)
		}
		record.Type = recordType
	}
	if req.Title != nil {
		record.Title = *req.Title
	}
	if req.Diagnosis != nil {
		record.Diagnosis = *req.Diagnosis
	}
	if req.Symptoms != nil {
		record.Symptoms = *req.Symptoms
	}
	if req.Treatment != nil {
		record.Treatment = *req.Treatment
	}
	if req.Prescription != nil {
		record.Prescription = *req.Prescription
	}
	if req.Notes != nil {
		record.Notes = *req.Notes
	}
	if req.VitalSigns != nil {
		record.VitalSigns = *req.VitalSigns
	}
	if req.TestResults != nil {
		record.TestResults = *req.TestResults
	}
	if req.Allergies != nil {
		record.Allergies = *req.Allergies
	}
	if req.IsConfidential != nil {
		record.IsConfidential = *req.IsConfidential
	}
	if req.FollowUpDate != nil {
		record.FollowUpDate = req.FollowUpDate
	}
	record.UpdatedAt = time.Now()

	if err := s.recordRepo.Update(ctx, record); err != nil {
		return nil, errors.Internal(err)
	}
	return record, nil
}

// Delete removes a record. Only the authoring doctor or an admin may do so.
func (s *Service) Delete(ctx context.Context, recordID, requesterID uuid.UUID, requesterRole model.Role) error {
	record, err := s.recordRepo.Get(ctx, recordID)
	if err != nil {
		return errors.NotFound("medical record", err)
	}
	if requesterRole != model.RoleAdmin && record.DoctorID != requesterID {
		return errors.Forbidden("only the authoring doctor may delete this record")
	}
	if err := s.recordRepo.Delete(ctx, recordID); err != nil {
		return errors.Internal(err)
	}
	return nil
}

// ListForPatient returns a patient's own records.
func (s *Service) ListForPatient(ctx context.Context, patientID uuid.UUID, filters *model.RecordFilters) ([]*model.MedicalRecord, error) {
	if filters == nil {
		filters = &model.RecordFilters{}
	}
	records, err := s.recordRepo.ListByPatient(ctx, patientID, filters)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return records, nil
}

// ListAuthored returns the records a doctor has written.
func (s *Service) ListAuthored(ctx context.Context, doctorID uuid.UUID, filters *model.RecordFilters) ([]*model.MedicalRecord, error) {
	if filters == nil {
		filters = &model.RecordFilters{}
	}
	records, err := s.recordRepo.ListByDoctor(ctx, doctorID, filters)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return records, nil
}

// ListPatientHistory returns another patient's records to a doctor or admin.
// Confidential records are excluded unless the requester is an admin or the
// authoring doctor filter applies.
func (s *Service) ListPatientHistory(ctx context.Context, patientID, requesterID uuid.UUID, requesterRole model.Role, filters *model.RecordFilters) ([]*model.MedicalRecord, error) {
	if requesterRole != model.RoleDoctor && requesterRole != model.RoleAdmin {
		return nil, errors.Forbidden("patient history is restricted to clinical staff")
	}
	if filters == nil {
		filters = &model.RecordFilters{}
	}
	if requesterRole == model.RoleDoctor {
		filters.ExcludeConfidential = true
	}
	records, err := s.recordRepo.ListByPatient(ctx, patientID, filters)
	if err != nil {
		return nil, errors.Internal(err)
	}
	// The authoring doctor still sees their own confidential entries.
	if requesterRole == model.RoleDoctor {
		own, err := s.recordRepo.ListByDoctor(ctx, requesterID, &model.RecordFilters{
			Type:       filters.Type,
			From:       filters.From,
			To:         filters.To,
			SearchTerm: filters.SearchTerm,
		})
		if err != nil {
			return nil, errors.Internal(err)
		}
		seen := make(map[uuid.UUID]bool, len(records))
		for _, r := range records {
			seen[r.ID] = true
		}
		for _, r := range own {
			if r.PatientID == patientID && r.IsConfidential && !seen[r.ID] {
				records = append(records, r)
			}
		}
	}
	return records, nil
}

// Stats aggregates record counts scoped to the requester.
func (s *Service) Stats(ctx context.Context, userID uuid.UUID, role model.Role) (*model.RecordStats, error) {
	var patientID, doctorID uuid.UUID
	switch role {
	case model.RolePatient:
		patientID = userID
	case model.RoleDoctor:
		doctorID = userID
	}
	stats, err := s.recordRepo.Stats(ctx, patientID, doctorID)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return stats, nil
}
