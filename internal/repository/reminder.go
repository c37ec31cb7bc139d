package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vitaltrack/backend/pkg/model"
	"go.uber.org/zap"
)

// ReminderRepository manages reminder event persistence
type ReminderRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewReminderRepository creates a new ReminderRepository
func NewReminderRepository(db *pgxpool.Pool, logger *zap.Logger) *ReminderRepository {
	return &ReminderRepository{
		db:     db,
		logger: logger,
	}
}

// Create persists a reminder event
func (r *ReminderRepository) Create(ctx context.Context, event *model.ReminderEvent) error {
	query := `
		INSERT INTO reminder_events (
			id, patient_id, medication_id, type,
			scheduled_for, completed, completed_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
	`

	_, err := r.db.Exec(ctx, query,
		event.ID,
		event.PatientID,
		event.MedicationID,
		event.Type,
		event.ScheduledFor,
		event.Completed,
		event.CompletedAt,
	)

	if err != nil {
		r.logger.Error("failed to create reminder event",
			zap.Error(err),
			zap.String("event_id", event.ID),
			zap.String("patient_id", event.PatientID),
		)
		return fmt.Errorf("failed to create reminder event: %w", err)
	}

	return nil
}

// Complete marks a reminder event as completed at the given time
func (r *ReminderRepository) Complete(ctx context.Context, eventID string, at time.Time) error {
	query := `
		UPDATE reminder_events
		SET completed = TRUE, completed_at = $1
		WHERE id = $2
	`

	result, err := r.db.Exec(ctx, query, at, eventID)
	if err != nil {
		r.logger.Error("failed to complete reminder event",
			zap.Error(err),
			zap.String("event_id", eventID),
		)
		return fmt.Errorf("failed to complete reminder event: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("reminder event not found: %s", eventID)
	}

	return nil
}

// FindCompleted retrieves completed reminder events of one type for a
// patient since the given time; the adherence window query
func (r *ReminderRepository) FindCompleted(ctx context.Context, patientID string, reminderType model.ReminderType, since time.Time) ([]model.ReminderEvent, error) {
	query := `
		SELECT id, patient_id, medication_id, type,
		       scheduled_for, completed, completed_at, created_at
		FROM reminder_events
		WHERE patient_id = $1
		  AND type = $2
		  AND completed = TRUE
		  AND completed_at >= $3
		ORDER BY completed_at DESC
	`

	rows, err := r.db.Query(ctx, query, patientID, reminderType, since)
	if err != nil {
		r.logger.Error("failed to find completed reminders", zap.Error(err), zap.String("patient_id", patientID))
		return nil, fmt.Errorf("failed to find completed reminders: %w", err)
	}
	defer rows.Close()

	var events []model.ReminderEvent
	for rows.Next() {
		var event model.ReminderEvent
		err := rows.Scan(
			&event.ID,
			&event.PatientID,
			&event.MedicationID,
			&event.Type,
			&event.ScheduledFor,
			&event.Completed,
			&event.CompletedAt,
			&event.CreatedAt,
		)
		if err != nil {
			r.logger.Error("failed to scan reminder event", zap.Error(err))
			continue
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("error iterating reminder events", zap.Error(err))
		return nil, fmt.Errorf("error iterating reminder events: %w", err)
	}

	return events, nil
}
