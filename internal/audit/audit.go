// Package audit records the outcome of every notification send so support
// staff can answer "did this patient get their reminder" from the database.
package audit

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// NotificationKind represents the type of notification sent
type NotificationKind string

const (
	KindMedicationReminder NotificationKind = "medication_reminder"
	KindDailyUpdate        NotificationKind = "daily_update"
	KindHealthAlert        NotificationKind = "health_alert"
)

// SendRecord is one delivery attempt
type SendRecord struct {
	ID        string           `json:"id"`
	PatientID string           `json:"patient_id"`
	Kind      NotificationKind `json:"kind"`
	// SubjectID is the medication or reading the send was about, empty for daily updates
	SubjectID string    `json:"subject_id,omitempty"`
	Status    string    `json:"status"`
	Detail    string    `json:"detail,omitempty"`
	SentAt    time.Time `json:"sent_at"`
}

// Trail persists send records
type Trail struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewTrail creates a new audit trail
func NewTrail(db *pgxpool.Pool, logger *zap.Logger) *Trail {
	return &Trail{
		db:     db,
		logger: logger,
	}
}

// Record writes one send outcome. Failures are logged but not returned;
// auditing must never break the notification path.
func (t *Trail) Record(ctx context.Context, record SendRecord) {
	if record.SentAt.IsZero() {
		record.SentAt = time.Now()
	}

	t.logger.Info("notification audit entry",
		zap.String("patient_id", record.PatientID),
		zap.String("kind", string(record.Kind)),
		zap.String("subject_id", record.SubjectID),
		zap.String("status", record.Status),
		zap.Time("sent_at", record.SentAt),
	)

	query := `
		INSERT INTO notification_audit (
			patient_id, kind, subject_id, status, detail, sent_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := t.db.Exec(ctx, query,
		record.PatientID,
		record.Kind,
		record.SubjectID,
		record.Status,
		record.Detail,
		record.SentAt,
	)
	if err != nil {
		t.logger.Error("failed to write notification audit entry",
			zap.Error(err),
			zap.String("patient_id", record.PatientID),
			zap.String("kind", string(record.Kind)),
		)
	}
}

// RecentByPatient retrieves the latest send records for a patient
func (t *Trail) RecentByPatient(ctx context.Context, patientID string, limit int) ([]SendRecord, error) {
	query := `
		SELECT id, patient_id, kind, subject_id, status, detail, sent_at
		FROM notification_audit
		WHERE patient_id = $1
		ORDER BY sent_at DESC
		LIMIT $2
	`

	rows, err := t.db.Query(ctx, query, patientID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []SendRecord
	for rows.Next() {
		var record SendRecord
		err := rows.Scan(
			&record.ID,
			&record.PatientID,
			&record.Kind,
			&record.SubjectID,
			&record.Status,
			&record.Detail,
			&record.SentAt,
		)
		if err != nil {
			t.logger.Error("failed to scan audit record", zap.Error(err))
			continue
		}
		records = append(records, record)
	}

	return records, nil
}
