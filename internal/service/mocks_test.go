package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/vitaltrack/backend/internal/repository"
	"github.com/vitaltrack/backend/pkg/model"
)

// MockReadingRepository is a mock implementation of ReadingRepositoryInterface
type MockReadingRepository struct {
	mock.Mock
}

func (m *MockReadingRepository) Create(ctx context.Context, reading *model.Reading) error {
	args := m.Called(ctx, reading)
	return args.Error(0)
}

func (m *MockReadingRepository) FindByID(ctx context.Context, readingID string) (*model.Reading, error) {
	args := m.Called(ctx, readingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Reading), args.Error(1)
}

func (m *MockReadingRepository) FindByPatient(ctx context.Context, patientID string, q repository.ReadingQuery) ([]model.Reading, error) {
	args := m.Called(ctx, patientID, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Reading), args.Error(1)
}

func (m *MockReadingRepository) UpdateAnalysis(ctx context.Context, readingID string, riskLevel model.RiskLevel, snapshot *model.AnalysisResult) error {
	args := m.Called(ctx, readingID, riskLevel, snapshot)
	return args.Error(0)
}

func (m *MockReadingRepository) FindUnsentHighRisk(ctx context.Context, patientID string, since time.Time) ([]model.Reading, error) {
	args := m.Called(ctx, patientID, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Reading), args.Error(1)
}

func (m *MockReadingRepository) MarkAlertSent(ctx context.Context, readingID string) error {
	args := m.Called(ctx, readingID)
	return args.Error(0)
}

// MockMedicationRepository is a mock implementation of MedicationRepositoryInterface
type MockMedicationRepository struct {
	mock.Mock
}

func (m *MockMedicationRepository) Create(ctx context.Context, med *model.Medication) error {
	args := m.Called(ctx, med)
	return args.Error(0)
}

func (m *MockMedicationRepository) FindByID(ctx context.Context, medicationID string) (*model.Medication, error) {
	args := m.Called(ctx, medicationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Medication), args.Error(1)
}

func (m *MockMedicationRepository) FindByPatient(ctx context.Context, patientID string) ([]model.Medication, error) {
	args := m.Called(ctx, patientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Medication), args.Error(1)
}

func (m *MockMedicationRepository) FindActive(ctx context.Context, patientID string) ([]model.Medication, error) {
	args := m.Called(ctx, patientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Medication), args.Error(1)
}

func (m *MockMedicationRepository) Update(ctx context.Context, med *model.Medication) error {
	args := m.Called(ctx, med)
	return args.Error(0)
}

func (m *MockMedicationRepository) Deactivate(ctx context.Context, medicationID string) error {
	args := m.Called(ctx, medicationID)
	return args.Error(0)
}

// MockReminderRepository is a mock implementation of ReminderRepositoryInterface
type MockReminderRepository struct {
	mock.Mock
}

func (m *MockReminderRepository) Create(ctx context.Context, event *model.ReminderEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockReminderRepository) Complete(ctx context.Context, eventID string, at time.Time) error {
	args := m.Called(ctx, eventID, at)
	return args.Error(0)
}

func (m *MockReminderRepository) FindCompleted(ctx context.Context, patientID string, reminderType model.ReminderType, since time.Time) ([]model.ReminderEvent, error) {
	args := m.Called(ctx, patientID, reminderType, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ReminderEvent), args.Error(1)
}

// MockPatientRepository is a mock implementation of PatientRepositoryInterface
type MockPatientRepository struct {
	mock.Mock
}

func (m *MockPatientRepository) FindByID(ctx context.Context, patientID string) (*model.Patient, error) {
	args := m.Called(ctx, patientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Patient), args.Error(1)
}

func (m *MockPatientRepository) FindAllWithEmailTime(ctx context.Context) ([]model.Patient, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Patient), args.Error(1)
}

func (m *MockPatientRepository) UpdateMotivationLevel(ctx context.Context, patientID string, level model.MotivationLevel) error {
	args := m.Called(ctx, patientID, level)
	return args.Error(0)
}
