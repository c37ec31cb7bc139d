package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vitaltrack/backend/pkg/model"
	"go.uber.org/zap"
)

// ReadingQuery filters a reading lookup; zero values mean "no filter"
type ReadingQuery struct {
	DataType model.DataType
	Since    *time.Time
	Limit    int
}

// ReadingRepository manages health reading persistence
type ReadingRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewReadingRepository creates a new ReadingRepository
func NewReadingRepository(db *pgxpool.Pool, logger *zap.Logger) *ReadingRepository {
	return &ReadingRepository{
		db:     db,
		logger: logger,
	}
}

// Create persists a new reading. Value and analysis snapshot are stored as
// JSON so the blood-pressure pair and plain numbers share one column.
func (r *ReadingRepository) Create(ctx context.Context, reading *model.Reading) error {
	valueJSON, err := json.Marshal(reading.Value)
	if err != nil {
		return fmt.Errorf("failed to encode reading value: %w", err)
	}

	query := `
		INSERT INTO readings (
			id, patient_id, data_type, value, unit,
			recorded_at, risk_level, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
	`

	_, err = r.db.Exec(ctx, query,
		reading.ID,
		reading.PatientID,
		reading.DataType,
		valueJSON,
		reading.Unit,
		reading.RecordedAt,
		reading.RiskLevel,
	)

	if err != nil {
		r.logger.Error("failed to create reading",
			zap.Error(err),
			zap.String("reading_id", reading.ID),
			zap.String("patient_id", reading.PatientID),
		)
		return fmt.Errorf("failed to create reading: %w", err)
	}

	return nil
}

// FindByPatient retrieves readings for a patient ordered oldest-first, so
// results enter trend analysis in time order
func (r *ReadingRepository) FindByPatient(ctx context.Context, patientID string, q ReadingQuery) ([]model.Reading, error) {
	query := `
		SELECT
			id, patient_id, data_type, value, unit,
			recorded_at, risk_level, analysis_snapshot, alert_sent_at, created_at
		FROM readings
		WHERE patient_id = $1
	`
	args := []interface{}{patientID}

	if q.DataType != "" {
		args = append(args, q.DataType)
		query += fmt.Sprintf(" AND data_type = $%d", len(args))
	}
	if q.Since != nil {
		args = append(args, *q.Since)
		query += fmt.Sprintf(" AND recorded_at >= $%d", len(args))
	}
	query += " ORDER BY recorded_at ASC"
	if q.Limit > 0 {
		args = append(args, q.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to find readings", zap.Error(err), zap.String("patient_id", patientID))
		return nil, fmt.Errorf("failed to find readings: %w", err)
	}
	defer rows.Close()

	return r.scanReadings(rows)
}

// FindByID retrieves a single reading
func (r *ReadingRepository) FindByID(ctx context.Context, readingID string) (*model.Reading, error) {
	query := `
		SELECT
			id, patient_id, data_type, value, unit,
			recorded_at, risk_level, analysis_snapshot, alert_sent_at, created_at
		FROM readings
		WHERE id = $1
	`

	rows, err := r.db.Query(ctx, query, readingID)
	if err != nil {
		r.logger.Error("failed to find reading", zap.Error(err), zap.String("reading_id", readingID))
		return nil, fmt.Errorf("failed to find reading: %w", err)
	}
	defer rows.Close()

	readings, err := r.scanReadings(rows)
	if err != nil {
		return nil, err
	}
	if len(readings) == 0 {
		return nil, fmt.Errorf("reading not found: %s", readingID)
	}
	return &readings[0], nil
}

// UpdateAnalysis rewrites the cached risk level and analysis snapshot after
// the analysis engine has re-evaluated the reading
func (r *ReadingRepository) UpdateAnalysis(ctx context.Context, readingID string, riskLevel model.RiskLevel, snapshot *model.AnalysisResult) error {
	snapshotJSON, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode analysis snapshot: %w", err)
	}

	query := `
		UPDATE readings
		SET risk_level = $1, analysis_snapshot = $2
		WHERE id = $3
	`

	result, err := r.db.Exec(ctx, query, riskLevel, snapshotJSON, readingID)
	if err != nil {
		r.logger.Error("failed to update reading analysis",
			zap.Error(err),
			zap.String("reading_id", readingID),
		)
		return fmt.Errorf("failed to update reading analysis: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("reading not found: %s", readingID)
	}

	return nil
}

// FindUnsentHighRisk returns high/critical readings recorded since the given
// time whose alert has not been sent yet
func (r *ReadingRepository) FindUnsentHighRisk(ctx context.Context, patientID string, since time.Time) ([]model.Reading, error) {
	query := `
		SELECT
			id, patient_id, data_type, value, unit,
			recorded_at, risk_level, analysis_snapshot, alert_sent_at, created_at
		FROM readings
		WHERE patient_id = $1
		  AND recorded_at >= $2
		  AND risk_level IN ('high', 'critical')
		  AND alert_sent_at IS NULL
		ORDER BY recorded_at ASC
	`

	rows, err := r.db.Query(ctx, query, patientID, since)
	if err != nil {
		r.logger.Error("failed to find unsent high-risk readings", zap.Error(err), zap.String("patient_id", patientID))
		return nil, fmt.Errorf("failed to find unsent high-risk readings: %w", err)
	}
	defer rows.Close()

	return r.scanReadings(rows)
}

// MarkAlertSent records that a health alert went out for this reading,
// guaranteeing at-most-once delivery per reading
func (r *ReadingRepository) MarkAlertSent(ctx context.Context, readingID string) error {
	query := `UPDATE readings SET alert_sent_at = NOW() WHERE id = $1 AND alert_sent_at IS NULL`

	result, err := r.db.Exec(ctx, query, readingID)
	if err != nil {
		r.logger.Error("failed to mark alert sent",
			zap.Error(err),
			zap.String("reading_id", readingID),
		)
		return fmt.Errorf("failed to mark alert sent: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("reading not found or alert already sent: %s", readingID)
	}

	return nil
}

func (r *ReadingRepository) scanReadings(rows pgx.Rows) ([]model.Reading, error) {
	var readings []model.Reading
	for rows.Next() {
		var reading model.Reading
		var valueJSON []byte
		var snapshotJSON []byte

		err := rows.Scan(
			&reading.ID,
			&reading.PatientID,
			&reading.DataType,
			&valueJSON,
			&reading.Unit,
			&reading.RecordedAt,
			&reading.RiskLevel,
			&snapshotJSON,
			&reading.AlertSentAt,
			&reading.CreatedAt,
		)
		if err != nil {
			r.logger.Error("failed to scan reading", zap.Error(err))
			continue
		}

		if err := json.Unmarshal(valueJSON, &reading.Value); err != nil {
			r.logger.Error("failed to decode reading value", zap.Error(err), zap.String("reading_id", reading.ID))
			continue
		}
		if len(snapshotJSON) > 0 {
			var snapshot model.AnalysisResult
			if err := json.Unmarshal(snapshotJSON, &snapshot); err == nil {
				reading.AnalysisSnapshot = &snapshot
			}
		}

		readings = append(readings, reading)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("error iterating readings", zap.Error(err))
		return nil, fmt.Errorf("error iterating readings: %w", err)
	}

	return readings, nil
}
