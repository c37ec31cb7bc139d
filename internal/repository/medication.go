package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vitaltrack/backend/pkg/model"
	"go.uber.org/zap"
)

// MedicationRepository manages medication schedule persistence
type MedicationRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewMedicationRepository creates a new MedicationRepository
func NewMedicationRepository(db *pgxpool.Pool, logger *zap.Logger) *MedicationRepository {
	return &MedicationRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new medication record
func (r *MedicationRepository) Create(ctx context.Context, med *model.Medication) error {
	query := `
		INSERT INTO medications (
			id, patient_id, name, dosage, dose_times,
			active, start_date, end_date, notes,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
	`

	_, err := r.db.Exec(ctx, query,
		med.ID,
		med.PatientID,
		med.Name,
		med.Dosage,
		med.DoseTimes,
		med.Active,
		med.StartDate,
		med.EndDate,
		med.Notes,
	)

	if err != nil {
		r.logger.Error("failed to create medication",
			zap.Error(err),
			zap.String("medication_id", med.ID),
			zap.String("patient_id", med.PatientID),
		)
		return fmt.Errorf("failed to create medication: %w", err)
	}

	return nil
}

// FindByID retrieves a medication by ID
func (r *MedicationRepository) FindByID(ctx context.Context, medicationID string) (*model.Medication, error) {
	query := `
		SELECT
			id, patient_id, name, dosage, dose_times,
			active, start_date, end_date, notes,
			created_at, updated_at
		FROM medications
		WHERE id = $1
	`

	var med model.Medication
	err := r.db.QueryRow(ctx, query, medicationID).Scan(
		&med.ID,
		&med.PatientID,
		&med.Name,
		&med.Dosage,
		&med.DoseTimes,
		&med.Active,
		&med.StartDate,
		&med.EndDate,
		&med.Notes,
		&med.CreatedAt,
		&med.UpdatedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("medication not found: %s", medicationID)
		}
		r.logger.Error("failed to find medication", zap.Error(err), zap.String("medication_id", medicationID))
		return nil, fmt.Errorf("failed to find medication: %w", err)
	}

	return &med, nil
}

// FindByPatient retrieves all medications for a patient, newest first
func (r *MedicationRepository) FindByPatient(ctx context.Context, patientID string) ([]model.Medication, error) {
	query := `
		SELECT
			id, patient_id, name, dosage, dose_times,
			active, start_date, end_date, notes,
			created_at, updated_at
		FROM medications
		WHERE patient_id = $1
		ORDER BY start_date DESC
	`

	rows, err := r.db.Query(ctx, query, patientID)
	if err != nil {
		r.logger.Error("failed to find medications", zap.Error(err), zap.String("patient_id", patientID))
		return nil, fmt.Errorf("failed to find medications: %w", err)
	}
	defer rows.Close()

	return r.scanMedications(rows)
}

// FindActive retrieves active medications, for one patient when patientID is
// set or across all patients when it is empty (the scheduler's reload path)
func (r *MedicationRepository) FindActive(ctx context.Context, patientID string) ([]model.Medication, error) {
	query := `
		SELECT
			id, patient_id, name, dosage, dose_times,
			active, start_date, end_date, notes,
			created_at, updated_at
		FROM medications
		WHERE active = TRUE
	`
	args := []interface{}{}

	if patientID != "" {
		args = append(args, patientID)
		query += " AND patient_id = $1"
	}
	query += " ORDER BY patient_id, start_date DESC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to find active medications", zap.Error(err), zap.String("patient_id", patientID))
		return nil, fmt.Errorf("failed to find active medications: %w", err)
	}
	defer rows.Close()

	return r.scanMedications(rows)
}

// Update updates an existing medication record
func (r *MedicationRepository) Update(ctx context.Context, med *model.Medication) error {
	query := `
		UPDATE medications
		SET name = $1, dosage = $2, dose_times = $3,
		    active = $4, start_date = $5, end_date = $6,
		    notes = $7, updated_at = NOW()
		WHERE id = $8
	`

	result, err := r.db.Exec(ctx, query,
		med.Name,
		med.Dosage,
		med.DoseTimes,
		med.Active,
		med.StartDate,
		med.EndDate,
		med.Notes,
		med.ID,
	)

	if err != nil {
		r.logger.Error("failed to update medication",
			zap.Error(err),
			zap.String("medication_id", med.ID),
		)
		return fmt.Errorf("failed to update medication: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("medication not found: %s", med.ID)
	}

	return nil
}

// Deactivate soft-deactivates a medication. Records are never destroyed so
// adherence history stays auditable.
func (r *MedicationRepository) Deactivate(ctx context.Context, medicationID string) error {
	query := `UPDATE medications SET active = FALSE, updated_at = NOW() WHERE id = $1`

	result, err := r.db.Exec(ctx, query, medicationID)
	if err != nil {
		r.logger.Error("failed to deactivate medication",
			zap.Error(err),
			zap.String("medication_id", medicationID),
		)
		return fmt.Errorf("failed to deactivate medication: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("medication not found: %s", medicationID)
	}

	return nil
}

func (r *MedicationRepository) scanMedications(rows pgx.Rows) ([]model.Medication, error) {
	var medications []model.Medication
	for rows.Next() {
		var med model.Medication
		err := rows.Scan(
			&med.ID,
			&med.PatientID,
			&med.Name,
			&med.Dosage,
			&med.DoseTimes,
			&med.Active,
			&med.StartDate,
			&med.EndDate,
			&med.Notes,
			&med.CreatedAt,
			&med.UpdatedAt,
		)
		if err != nil {
			r.logger.Error("failed to scan medication", zap.Error(err))
			continue
		}
		medications = append(medications, med)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("error iterating medications", zap.Error(err))
		return nil, fmt.Errorf("error iterating medications: %w", err)
	}

	return medications, nil
}
