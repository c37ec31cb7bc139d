package service

import (
	"context"
	"time"

	"github.com/vitaltrack/backend/internal/repository"
	"github.com/vitaltrack/backend/pkg/model"
)

// ReadingRepositoryInterface defines the interface for reading data access
type ReadingRepositoryInterface interface {
	Create(ctx context.Context, reading *model.Reading) error
	FindByID(ctx context.Context, readingID string) (*model.Reading, error)
	FindByPatient(ctx context.Context, patientID string, q repository.ReadingQuery) ([]model.Reading, error)
	UpdateAnalysis(ctx context.Context, readingID string, riskLevel model.RiskLevel, snapshot *model.AnalysisResult) error
	FindUnsentHighRisk(ctx context.Context, patientID string, since time.Time) ([]model.Reading, error)
	MarkAlertSent(ctx context.Context, readingID string) error
}

// MedicationRepositoryInterface defines the interface for medication data access
type MedicationRepositoryInterface interface {
	Create(ctx context.Context, med *model.Medication) error
	FindByID(ctx context.Context, medicationID string) (*model.Medication, error)
	FindByPatient(ctx context.Context, patientID string) ([]model.Medication, error)
	FindActive(ctx context.Context, patientID string) ([]model.Medication, error)
	Update(ctx context.Context, med *model.Medication) error
	Deactivate(ctx context.Context, medicationID string) error
}

// ReminderRepositoryInterface defines the interface for reminder data access
type ReminderRepositoryInterface interface {
	Create(ctx context.Context, event *model.ReminderEvent) error
	Complete(ctx context.Context, eventID string, at time.Time) error
	FindCompleted(ctx context.Context, patientID string, reminderType model.ReminderType, since time.Time) ([]model.ReminderEvent, error)
}

// PatientRepositoryInterface defines the interface for patient data access
type PatientRepositoryInterface interface {
	FindByID(ctx context.Context, patientID string) (*model.Patient, error)
	FindAllWithEmailTime(ctx context.Context) ([]model.Patient, error)
	UpdateMotivationLevel(ctx context.Context, patientID string, level model.MotivationLevel) error
}
