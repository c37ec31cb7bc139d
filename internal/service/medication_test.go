package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/vitaltrack/backend/pkg/model"
	"go.uber.org/zap"
)

func TestNormalizeDoseTimes(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
		wantErr  bool
	}{
		{
			name:     "already normalized",
			input:    []string{"08:00", "20:00"},
			expected: []string{"08:00", "20:00"},
		},
		{
			name:     "unpadded hour is zero-padded",
			input:    []string{"8:00"},
			expected: []string{"08:00"},
		},
		{
			name:     "times are sorted",
			input:    []string{"20:00", "08:00", "12:30"},
			expected: []string{"08:00", "12:30", "20:00"},
		},
		{
			name:    "empty schedule rejected",
			input:   []string{},
			wantErr: true,
		},
		{
			name:    "duplicate after padding rejected",
			input:   []string{"8:00", "08:00"},
			wantErr: true,
		},
		{
			name:    "hour out of range rejected",
			input:   []string{"24:00"},
			wantErr: true,
		},
		{
			name:    "minute out of range rejected",
			input:   []string{"08:60"},
			wantErr: true,
		},
		{
			name:    "not a time rejected",
			input:   []string{"morning"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			normalized, err := NormalizeDoseTimes(tt.input)
			if tt.wantErr {
				var validationErr *model.ValidationError
				assert.ErrorAs(t, err, &validationErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, normalized)
		})
	}
}

func TestMedicationService_AddMedication_ValidationErrors(t *testing.T) {
	service := NewMedicationService(new(MockMedicationRepository), new(MockReminderRepository), zap.NewNop())
	ctx := context.Background()

	tests := []struct {
		name        string
		patientID   string
		medication  *model.Medication
		expectedErr string
	}{
		{
			name:        "empty patient ID",
			patientID:   "",
			medication:  &model.Medication{Name: "Metformin", Dosage: "500mg", DoseTimes: []string{"08:00"}},
			expectedErr: "patient ID is required",
		},
		{
			name:        "empty medication name",
			patientID:   "patient-1",
			medication:  &model.Medication{Dosage: "500mg", DoseTimes: []string{"08:00"}},
			expectedErr: "medication name is required",
		},
		{
			name:        "empty dosage",
			patientID:   "patient-1",
			medication:  &model.Medication{Name: "Metformin", DoseTimes: []string{"08:00"}},
			expectedErr: "medication dosage is required",
		},
		{
			name:        "no dose times",
			patientID:   "patient-1",
			medication:  &model.Medication{Name: "Metformin", Dosage: "500mg"},
			expectedErr: "at least one dose time",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := service.AddMedication(ctx, tt.patientID, tt.medication)
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectedErr)
		})
	}
}

func TestMedicationService_AddMedication_Success(t *testing.T) {
	// Arrange
	mockMedications := new(MockMedicationRepository)
	service := NewMedicationService(mockMedications, new(MockReminderRepository), zap.NewNop())

	ctx := context.Background()
	med := &model.Medication{
		Name:      "Metformin",
		Dosage:    "500mg",
		DoseTimes: []string{"20:00", "8:00"},
	}

	mockMedications.On("Create", ctx, med).Return(nil)

	// Act
	err := service.AddMedication(ctx, "patient-1", med)

	// Assert: ID assigned, schedule normalized and sorted, active by default
	assert.NoError(t, err)
	assert.NotEmpty(t, med.ID)
	assert.Equal(t, "patient-1", med.PatientID)
	assert.Equal(t, []string{"08:00", "20:00"}, med.DoseTimes)
	assert.True(t, med.Active)
	assert.False(t, med.StartDate.IsZero())

	mockMedications.AssertExpectations(t)
}

func TestMedicationService_AddMedication_InactiveWhenEndDatePast(t *testing.T) {
	// Arrange
	mockMedications := new(MockMedicationRepository)
	service := NewMedicationService(mockMedications, new(MockReminderRepository), zap.NewNop())

	ctx := context.Background()
	pastDate := time.Now().AddDate(0, 0, -1)
	med := &model.Medication{
		Name:      "Aspirin",
		Dosage:    "100mg",
		DoseTimes: []string{"08:00"},
		StartDate: time.Now().AddDate(0, 0, -30),
		EndDate:   &pastDate,
	}

	mockMedications.On("Create", ctx, med).Return(nil)

	// Act
	err := service.AddMedication(ctx, "patient-1", med)

	// Assert
	assert.NoError(t, err)
	assert.False(t, med.Active, "medication with past end date should be inactive")
}

func TestMedicationService_UpdateMedication_RejectsWrongPatient(t *testing.T) {
	// Arrange
	mockMedications := new(MockMedicationRepository)
	service := NewMedicationService(mockMedications, new(MockReminderRepository), zap.NewNop())

	ctx := context.Background()
	mockMedications.On("FindByID", ctx, "med-1").Return(&model.Medication{
		ID:        "med-1",
		PatientID: "patient-2",
	}, nil)

	// Act
	err := service.UpdateMedication(ctx, "patient-1", &model.Medication{
		ID:        "med-1",
		Name:      "Metformin",
		Dosage:    "500mg",
		Active:    true,
		DoseTimes: []string{"08:00"},
	})

	// Assert
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "does not belong to patient")
	mockMedications.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestMedicationService_UpdateMedication_NormalizesSchedule(t *testing.T) {
	// Arrange
	mockMedications := new(MockMedicationRepository)
	service := NewMedicationService(mockMedications, new(MockReminderRepository), zap.NewNop())

	ctx := context.Background()
	med := &model.Medication{
		ID:        "med-1",
		Name:      "Metformin",
		Dosage:    "850mg",
		DoseTimes: []string{"9:30"},
	}

	mockMedications.On("FindByID", ctx, "med-1").Return(&model.Medication{ID: "med-1", PatientID: "patient-1", Active: true}, nil)
	mockMedications.On("Update", ctx, med).Return(nil)

	// Act
	err := service.UpdateMedication(ctx, "patient-1", med)

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, []string{"09:30"}, med.DoseTimes)
	mockMedications.AssertExpectations(t)
}

func TestMedicationService_UpdateMedication_PreservesLifecycleFields(t *testing.T) {
	// Arrange
	mockMedications := new(MockMedicationRepository)
	service := NewMedicationService(mockMedications, new(MockReminderRepository), zap.NewNop())

	ctx := context.Background()
	startDate := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	createdAt := time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC)
	mockMedications.On("FindByID", ctx, "med-1").Return(&model.Medication{
		ID:        "med-1",
		PatientID: "patient-1",
		Active:    true,
		StartDate: startDate,
		CreatedAt: createdAt,
	}, nil)

	var written *model.Medication
	mockMedications.On("Update", ctx, mock.Anything).Run(func(args mock.Arguments) {
		written = args.Get(1).(*model.Medication)
	}).Return(nil)

	// Act: the edit payload carries no lifecycle state, like a PUT body
	err := service.UpdateMedication(ctx, "patient-1", &model.Medication{
		ID:        "med-1",
		Name:      "Metformin",
		Dosage:    "850mg",
		DoseTimes: []string{"08:00", "20:00"},
	})

	// Assert
	assert.NoError(t, err)
	assert.True(t, written.Active, "editing a medication must not deactivate it")
	assert.Equal(t, startDate, written.StartDate)
	assert.Equal(t, createdAt, written.CreatedAt)
	mockMedications.AssertExpectations(t)
}

func TestMedicationService_DeactivateMedication(t *testing.T) {
	// Arrange
	mockMedications := new(MockMedicationRepository)
	service := NewMedicationService(mockMedications, new(MockReminderRepository), zap.NewNop())

	ctx := context.Background()
	mockMedications.On("FindByID", ctx, "med-1").Return(&model.Medication{ID: "med-1", PatientID: "patient-1"}, nil)
	mockMedications.On("Deactivate", ctx, "med-1").Return(nil)

	// Act
	err := service.DeactivateMedication(ctx, "patient-1", "med-1")

	// Assert
	assert.NoError(t, err)
	mockMedications.AssertExpectations(t)
}

func TestMedicationService_MarkDoseTaken_RecordsCompletedEvent(t *testing.T) {
	// Arrange
	mockMedications := new(MockMedicationRepository)
	mockReminders := new(MockReminderRepository)
	service := NewMedicationService(mockMedications, mockReminders, zap.NewNop())

	ctx := context.Background()
	takenAt := time.Date(2026, 8, 28, 8, 5, 0, 0, time.UTC)

	mockMedications.On("FindByID", ctx, "med-1").Return(&model.Medication{ID: "med-1", PatientID: "patient-1"}, nil)

	var recorded *model.ReminderEvent
	mockReminders.On("Create", ctx, mock.Anything).Run(func(args mock.Arguments) {
		recorded = args.Get(1).(*model.ReminderEvent)
	}).Return(nil)

	// Act
	err := service.MarkDoseTaken(ctx, "patient-1", "med-1", takenAt)

	// Assert: the event is already completed so it counts toward adherence
	assert.NoError(t, err)
	assert.NotNil(t, recorded)
	assert.Equal(t, model.ReminderMedication, recorded.Type)
	assert.Equal(t, "med-1", *recorded.MedicationID)
	assert.True(t, recorded.Completed)
	assert.Equal(t, takenAt, *recorded.CompletedAt)
}

func TestMedicationService_MarkDoseTaken_RejectsWrongPatient(t *testing.T) {
	// Arrange
	mockMedications := new(MockMedicationRepository)
	mockReminders := new(MockReminderRepository)
	service := NewMedicationService(mockMedications, mockReminders, zap.NewNop())

	ctx := context.Background()
	mockMedications.On("FindByID", ctx, "med-1").Return(&model.Medication{ID: "med-1", PatientID: "patient-2"}, nil)

	// Act
	err := service.MarkDoseTaken(ctx, "patient-1", "med-1", time.Now())

	// Assert
	assert.Error(t, err)
	mockReminders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}
