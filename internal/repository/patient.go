package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vitaltrack/backend/pkg/model"
	"go.uber.org/zap"
)

// PatientRepository manages patient profile persistence
type PatientRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewPatientRepository creates a new PatientRepository
func NewPatientRepository(db *pgxpool.Pool, logger *zap.Logger) *PatientRepository {
	return &PatientRepository{
		db:     db,
		logger: logger,
	}
}

// FindByID retrieves a patient profile
func (r *PatientRepository) FindByID(ctx context.Context, patientID string) (*model.Patient, error) {
	query := `
		SELECT id, name, email, chronic_conditions,
		       preferred_email_time, motivation_level,
		       created_at, updated_at
		FROM patients
		WHERE id = $1
	`

	var patient model.Patient
	err := r.db.QueryRow(ctx, query, patientID).Scan(
		&patient.ID,
		&patient.Name,
		&patient.Email,
		&patient.ChronicConditions,
		&patient.PreferredEmailTime,
		&patient.MotivationLevel,
		&patient.CreatedAt,
		&patient.UpdatedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("patient not found: %s", patientID)
		}
		r.logger.Error("failed to find patient", zap.Error(err), zap.String("patient_id", patientID))
		return nil, fmt.Errorf("failed to find patient: %w", err)
	}

	return &patient, nil
}

// FindAllWithEmailTime retrieves every patient that has a preferred email
// time configured; the scheduler's reload query. preferred_email_time is
// stored and returned as a zero-padded "HH:MM:SS" string.
func (r *PatientRepository) FindAllWithEmailTime(ctx context.Context) ([]model.Patient, error) {
	query := `
		SELECT id, name, email, chronic_conditions,
		       preferred_email_time, motivation_level,
		       created_at, updated_at
		FROM patients
		WHERE preferred_email_time IS NOT NULL AND preferred_email_time <> ''
		ORDER BY id
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.logger.Error("failed to find patients with email time", zap.Error(err))
		return nil, fmt.Errorf("failed to find patients with email time: %w", err)
	}
	defer rows.Close()

	var patients []model.Patient
	for rows.Next() {
		var patient model.Patient
		err := rows.Scan(
			&patient.ID,
			&patient.Name,
			&patient.Email,
			&patient.ChronicConditions,
			&patient.PreferredEmailTime,
			&patient.MotivationLevel,
			&patient.CreatedAt,
			&patient.UpdatedAt,
		)
		if err != nil {
			r.logger.Error("failed to scan patient", zap.Error(err))
			continue
		}
		patients = append(patients, patient)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("error iterating patients", zap.Error(err))
		return nil, fmt.Errorf("error iterating patients: %w", err)
	}

	return patients, nil
}

// UpdateMotivationLevel rewrites the derived motivation tier after an
// adherence recomputation
func (r *PatientRepository) UpdateMotivationLevel(ctx context.Context, patientID string, level model.MotivationLevel) error {
	query := `UPDATE patients SET motivation_level = $1, updated_at = NOW() WHERE id = $2`

	result, err := r.db.Exec(ctx, query, level, patientID)
	if err != nil {
		r.logger.Error("failed to update motivation level",
			zap.Error(err),
			zap.String("patient_id", patientID),
		)
		return fmt.Errorf("failed to update motivation level: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("patient not found: %s", patientID)
	}

	return nil
}
