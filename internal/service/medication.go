package service

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/vitaltrack/backend/pkg/model"
	"go.uber.org/zap"
)

// doseTimePattern matches the zero-padded HH:MM wire format dose times are
// stored in; other components depend on this exact shape
var doseTimePattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// looseDoseTimePattern accepts the unpadded form patients type ("8:00")
var looseDoseTimePattern = regexp.MustCompile(`^([0-9]|[01][0-9]|2[0-3]):([0-5][0-9])$`)

// MedicationService handles medication schedule business logic
type MedicationService struct {
	medications MedicationRepositoryInterface
	reminders   ReminderRepositoryInterface
	logger      *zap.Logger
}

// NewMedicationService creates a new MedicationService
func NewMedicationService(medications MedicationRepositoryInterface, reminders ReminderRepositoryInterface, logger *zap.Logger) *MedicationService {
	return &MedicationService{
		medications: medications,
		reminders:   reminders,
		logger:      logger,
	}
}

// AddMedication adds a new medication with its dose schedule
func (s *MedicationService) AddMedication(ctx context.Context, patientID string, med *model.Medication) error {
	if patientID == "" {
		return fmt.Errorf("patient ID is required")
	}
	if med.Name == "" {
		return fmt.Errorf("medication name is required")
	}
	if med.Dosage == "" {
		return fmt.Errorf("medication dosage is required")
	}

	doseTimes, err := NormalizeDoseTimes(med.DoseTimes)
	if err != nil {
		return err
	}
	med.DoseTimes = doseTimes

	if med.ID == "" {
		med.ID = uuid.New().String()
	}
	med.PatientID = patientID

	if med.StartDate.IsZero() {
		med.StartDate = time.Now()
	}
	med.Active = true
	if med.EndDate != nil && med.EndDate.Before(time.Now()) {
		med.Active = false
	}

	now := time.Now()
	med.CreatedAt = now
	med.UpdatedAt = now

	if err := s.medications.Create(ctx, med); err != nil {
		s.logger.Error("failed to add medication",
			zap.Error(err),
			zap.String("patient_id", patientID),
		)
		return fmt.Errorf("failed to add medication: %w", err)
	}

	s.logger.Info("medication added",
		zap.String("medication_id", med.ID),
		zap.String("patient_id", patientID),
		zap.Strings("dose_times", med.DoseTimes),
	)

	return nil
}

// UpdateMedication edits an existing medication's schedule
func (s *MedicationService) UpdateMedication(ctx context.Context, patientID string, med *model.Medication) error {
	if patientID == "" {
		return fmt.Errorf("patient ID is required")
	}
	if med.ID == "" {
		return fmt.Errorf("medication ID is required")
	}

	existing, err := s.medications.FindByID(ctx, med.ID)
	if err != nil {
		return fmt.Errorf("failed to find medication: %w", err)
	}
	if existing.PatientID != patientID {
		return fmt.Errorf("medication %s does not belong to patient %s", med.ID, patientID)
	}

	doseTimes, err := NormalizeDoseTimes(med.DoseTimes)
	if err != nil {
		return err
	}
	med.DoseTimes = doseTimes

	// An edit only touches the schedule fields; lifecycle state stays with
	// the stored row so a PUT can never deactivate or re-date a medication.
	med.Active = existing.Active
	med.StartDate = existing.StartDate
	med.CreatedAt = existing.CreatedAt

	med.PatientID = patientID
	med.UpdatedAt = time.Now()

	if err := s.medications.Update(ctx, med); err != nil {
		s.logger.Error("failed to update medication",
			zap.Error(err),
			zap.String("medication_id", med.ID),
		)
		return fmt.Errorf("failed to update medication: %w", err)
	}

	return nil
}

// DeactivateMedication soft-deactivates a medication, preserving its
// adherence history
func (s *MedicationService) DeactivateMedication(ctx context.Context, patientID, medicationID string) error {
	existing, err := s.medications.FindByID(ctx, medicationID)
	if err != nil {
		return fmt.Errorf("failed to find medication: %w", err)
	}
	if existing.PatientID != patientID {
		return fmt.Errorf("medication %s does not belong to patient %s", medicationID, patientID)
	}

	if err := s.medications.Deactivate(ctx, medicationID); err != nil {
		return fmt.Errorf("failed to deactivate medication: %w", err)
	}

	s.logger.Info("medication deactivated",
		zap.String("medication_id", medicationID),
		zap.String("patient_id", patientID),
	)

	return nil
}

// ListMedications retrieves all medications for a patient
func (s *MedicationService) ListMedications(ctx context.Context, patientID string) ([]model.Medication, error) {
	if patientID == "" {
		return nil, fmt.Errorf("patient ID is required")
	}

	medications, err := s.medications.FindByPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list medications: %w", err)
	}

	return medications, nil
}

// MarkDoseTaken records a completed dose as a reminder event, feeding the
// adherence score
func (s *MedicationService) MarkDoseTaken(ctx context.Context, patientID, medicationID string, takenAt time.Time) error {
	med, err := s.medications.FindByID(ctx, medicationID)
	if err != nil {
		return fmt.Errorf("failed to find medication: %w", err)
	}
	if med.PatientID != patientID {
		return fmt.Errorf("medication %s does not belong to patient %s", medicationID, patientID)
	}

	if takenAt.IsZero() {
		takenAt = time.Now()
	}

	event := &model.ReminderEvent{
		ID:           uuid.New().String(),
		PatientID:    patientID,
		MedicationID: &medicationID,
		Type:         model.ReminderMedication,
		ScheduledFor: takenAt,
		Completed:    true,
		CompletedAt:  &takenAt,
	}

	if err := s.reminders.Create(ctx, event); err != nil {
		s.logger.Error("failed to record dose taken",
			zap.Error(err),
			zap.String("medication_id", medicationID),
			zap.String("patient_id", patientID),
		)
		return fmt.Errorf("failed to record dose taken: %w", err)
	}

	s.logger.Info("dose recorded",
		zap.String("medication_id", medicationID),
		zap.String("patient_id", patientID),
		zap.Time("taken_at", takenAt),
	)

	return nil
}

// NormalizeDoseTimes validates a dose schedule and rewrites each entry into
// the zero-padded HH:MM form. The schedule must be non-empty and free of
// duplicates.
func NormalizeDoseTimes(doseTimes []string) ([]string, error) {
	if len(doseTimes) == 0 {
		return nil, &model.ValidationError{Field: "dose_times", Reason: "an active medication needs at least one dose time"}
	}

	seen := make(map[string]bool, len(doseTimes))
	normalized := make([]string, 0, len(doseTimes))
	for _, raw := range doseTimes {
		m := looseDoseTimePattern.FindStringSubmatch(raw)
		if m == nil {
			return nil, &model.ValidationError{Field: "dose_times", Reason: fmt.Sprintf("%q is not a valid HH:MM time", raw)}
		}

		hour := m[1]
		if len(hour) == 1 {
			hour = "0" + hour
		}
		t := hour + ":" + m[2]
		if !doseTimePattern.MatchString(t) {
			return nil, &model.ValidationError{Field: "dose_times", Reason: fmt.Sprintf("%q is not a valid HH:MM time", raw)}
		}
		if seen[t] {
			return nil, &model.ValidationError{Field: "dose_times", Reason: fmt.Sprintf("duplicate dose time %s", t)}
		}
		seen[t] = true
		normalized = append(normalized, t)
	}

	sort.Strings(normalized)
	return normalized, nil
}
