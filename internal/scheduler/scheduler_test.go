package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/vitaltrack/backend/internal/notify"
	"github.com/vitaltrack/backend/pkg/model"
)

type fakePatientSource struct {
	patients []model.Patient
	err      error
}

func (f *fakePatientSource) FindAllWithEmailTime(context.Context) ([]model.Patient, error) {
	return f.patients, f.err
}

type fakeMedicationSource struct {
	medications []model.Medication
	err         error
}

func (f *fakeMedicationSource) FindActive(context.Context, string) ([]model.Medication, error) {
	return f.medications, f.err
}

type fakeReminderStore struct {
	events []model.ReminderEvent
	err    error
}

func (f *fakeReminderStore) Create(_ context.Context, event *model.ReminderEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, *event)
	return nil
}

type fakeAlertSource struct {
	readings []model.Reading
	marked   []string
	err      error
}

func (f *fakeAlertSource) FindUnsentHighRisk(context.Context, string, time.Time) ([]model.Reading, error) {
	return f.readings, f.err
}

func (f *fakeAlertSource) MarkAlertSent(_ context.Context, readingID string) error {
	f.marked = append(f.marked, readingID)
	return nil
}

type fakeAnalysisSource struct {
	result *model.AnalysisResult
	err    error
}

func (f *fakeAnalysisSource) ComprehensiveAnalysis(context.Context, string) (*model.AnalysisResult, error) {
	return f.result, f.err
}

type sinkCall struct {
	kind      string
	patientID string
	subject   string
}

type fakeSink struct {
	calls    []sinkCall
	failNext bool
}

func (f *fakeSink) SendMedicationReminder(_ context.Context, patient model.Patient, medication model.Medication) (notify.Status, error) {
	if f.failNext {
		return notify.StatusFailed, errors.New("send failed")
	}
	f.calls = append(f.calls, sinkCall{kind: "medication", patientID: patient.ID, subject: medication.Name})
	return notify.StatusDelivered, nil
}

func (f *fakeSink) SendMotivationalEmail(_ context.Context, patient model.Patient, update notify.DailyUpdate) (notify.Status, error) {
	if f.failNext {
		return notify.StatusFailed, errors.New("send failed")
	}
	f.calls = append(f.calls, sinkCall{kind: "daily", patientID: patient.ID, subject: update.Subject})
	return notify.StatusDelivered, nil
}

func (f *fakeSink) SendHealthAlert(_ context.Context, patient model.Patient, reading model.Reading, _ *model.AnalysisResult) (notify.Status, error) {
	if f.failNext {
		return notify.StatusFailed, errors.New("send failed")
	}
	f.calls = append(f.calls, sinkCall{kind: "alert", patientID: patient.ID, subject: string(reading.DataType)})
	return notify.StatusDelivered, nil
}

type fixture struct {
	scheduler   *Scheduler
	sink        *fakeSink
	reminders   *fakeReminderStore
	alerts      *fakeAlertSource
	medications *fakeMedicationSource
	patients    *fakePatientSource
	now         time.Time
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.SendsPerSecond = 1000
	return cfg
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		sink: &fakeSink{},
		patients: &fakePatientSource{patients: []model.Patient{
			{ID: "p1", Name: "Anna", Email: "anna@example.com", PreferredEmailTime: "09:30:00"},
		}},
		medications: &fakeMedicationSource{medications: []model.Medication{
			{ID: "m1", PatientID: "p1", Name: "Metformin", Dosage: "500mg", DoseTimes: []string{"08:00", "20:00"}, Active: true},
		}},
		reminders: &fakeReminderStore{},
		alerts:    &fakeAlertSource{},
		now:       time.Date(2025, 3, 10, 8, 0, 10, 0, time.UTC),
	}
	analysis := &fakeAnalysisSource{result: &model.AnalysisResult{}}
	composer := notify.NewComposer(nil, zap.NewNop())
	f.scheduler = New(testConfig(), f.patients, f.medications, f.reminders, f.alerts, analysis, composer, f.sink, zap.NewNop())
	f.scheduler.clock = func() time.Time { return f.now }
	f.scheduler.reloadSchedule(context.Background())
	return f
}

func TestMedicationTickFiresAtDoseTime(t *testing.T) {
	// Arrange
	f := newFixture(t)

	// Act
	f.scheduler.medicationTick(context.Background())

	// Assert
	assert.Len(t, f.sink.calls, 1)
	assert.Equal(t, "medication", f.sink.calls[0].kind)
	assert.Equal(t, "p1", f.sink.calls[0].patientID)
	assert.Len(t, f.reminders.events, 1)
	assert.Equal(t, model.ReminderMedication, f.reminders.events[0].Type)
	assert.Equal(t, "m1", *f.reminders.events[0].MedicationID)
	assert.False(t, f.reminders.events[0].Completed)
}

func TestMedicationTickDedupesWithinMinute(t *testing.T) {
	// Arrange
	f := newFixture(t)

	// Act: two ticks in the same minute, one in the next
	f.scheduler.medicationTick(context.Background())
	f.now = f.now.Add(30 * time.Second)
	f.scheduler.medicationTick(context.Background())
	f.now = f.now.Add(time.Minute)
	f.scheduler.medicationTick(context.Background())

	// Assert: fired once at 08:00, nothing at 08:01
	assert.Len(t, f.sink.calls, 1)
}

func TestMedicationTickCatchesDoseTimeBetweenTicks(t *testing.T) {
	// Arrange: the cron grid is phased so no tick ever lands on the dose
	// minutes themselves
	f := newFixture(t)
	f.now = time.Date(2025, 3, 10, 7, 59, 0, 0, time.UTC)

	// Act: two-minute ticks across the whole operating day
	for f.now.Hour() < 22 {
		f.scheduler.medicationTick(context.Background())
		f.now = f.now.Add(2 * time.Minute)
	}

	// Assert: both the 08:00 and the 20:00 dose fired exactly once
	assert.Len(t, f.sink.calls, 2)
	assert.Len(t, f.reminders.events, 2)
	assert.Equal(t, time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC), f.reminders.events[0].ScheduledFor)
	assert.Equal(t, time.Date(2025, 3, 10, 20, 0, 0, 0, time.UTC), f.reminders.events[1].ScheduledFor)
}

func TestMedicationTickRefiresAtNextDoseTime(t *testing.T) {
	f := newFixture(t)

	f.scheduler.medicationTick(context.Background())
	f.now = time.Date(2025, 3, 10, 20, 0, 5, 0, time.UTC)
	f.scheduler.medicationTick(context.Background())

	assert.Len(t, f.sink.calls, 2)
}

func TestMedicationTickSkipsOutsideOperatingHours(t *testing.T) {
	f := newFixture(t)
	f.medications.medications[0].DoseTimes = []string{"23:00"}
	f.scheduler.reloadSchedule(context.Background())
	f.now = time.Date(2025, 3, 10, 23, 0, 0, 0, time.UTC)

	f.scheduler.medicationTick(context.Background())

	assert.Empty(t, f.sink.calls)
}

func TestMedicationTickAbandonsOnStoreError(t *testing.T) {
	f := newFixture(t)
	f.reminders.err = errors.New("connection lost")

	f.scheduler.medicationTick(context.Background())

	assert.Empty(t, f.sink.calls)
}

func TestMedicationTickSinkFailureDoesNotAbort(t *testing.T) {
	// Arrange: two medications due the same minute, first send fails
	f := newFixture(t)
	f.medications.medications = append(f.medications.medications,
		model.Medication{ID: "m2", PatientID: "p1", Name: "Lisinopril", Dosage: "10mg", DoseTimes: []string{"08:00"}, Active: true})
	f.scheduler.reloadSchedule(context.Background())
	f.sink.failNext = true

	// Act
	f.scheduler.medicationTick(context.Background())

	// Assert: both reminder events recorded despite failing sends
	assert.Len(t, f.reminders.events, 2)
	assert.Empty(t, f.sink.calls)
}

func TestDailyTickSendsAtPreferredTime(t *testing.T) {
	// Arrange
	f := newFixture(t)
	adherence := 85
	analysis := &fakeAnalysisSource{result: &model.AnalysisResult{AdherenceScore: &adherence}}
	f.scheduler.analysis = analysis
	f.now = time.Date(2025, 3, 10, 9, 30, 45, 0, time.UTC)

	// Act
	f.scheduler.dailyTick(context.Background())

	// Assert
	assert.Len(t, f.sink.calls, 1)
	assert.Equal(t, "daily", f.sink.calls[0].kind)
	assert.Contains(t, f.sink.calls[0].subject, "Anna")
	assert.Len(t, f.reminders.events, 1)
	assert.Equal(t, model.ReminderDailyUpdate, f.reminders.events[0].Type)
}

func TestDailyTickDedupesWithinMinute(t *testing.T) {
	f := newFixture(t)
	f.now = time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)

	f.scheduler.dailyTick(context.Background())
	f.now = f.now.Add(20 * time.Second)
	f.scheduler.dailyTick(context.Background())

	assert.Len(t, f.sink.calls, 1)
}

func TestDailyTickCatchesPreferredTimeBetweenTicks(t *testing.T) {
	// Arrange: the tick lands a minute past the preferred 09:30
	f := newFixture(t)
	f.now = time.Date(2025, 3, 10, 9, 31, 0, 0, time.UTC)

	// Act
	f.scheduler.dailyTick(context.Background())

	// Assert: 09:30 falls inside the tick window and still gets the email
	assert.Len(t, f.sink.calls, 1)
	assert.Equal(t, "daily", f.sink.calls[0].kind)
}

func TestDailyTickSkipsMinutesOutsideWindow(t *testing.T) {
	f := newFixture(t)
	f.now = time.Date(2025, 3, 10, 9, 36, 0, 0, time.UTC)

	f.scheduler.dailyTick(context.Background())

	assert.Empty(t, f.sink.calls)
}

func TestDailyTickSendsWhenAnalysisFails(t *testing.T) {
	f := newFixture(t)
	f.scheduler.analysis = &fakeAnalysisSource{err: errors.New("database down")}
	f.now = time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)

	f.scheduler.dailyTick(context.Background())

	// Template email still goes out
	assert.Len(t, f.sink.calls, 1)
	assert.Equal(t, "daily", f.sink.calls[0].kind)
}

func TestDailyTickSendsHealthAlertsAndMarksSent(t *testing.T) {
	// Arrange: minute does not match the email time, alerts still scanned
	f := newFixture(t)
	f.alerts.readings = []model.Reading{
		{ID: "r1", PatientID: "p1", DataType: model.DataTypeBloodSugar, Value: model.NumericValue(260), RiskLevel: model.RiskCritical},
	}
	f.now = time.Date(2025, 3, 10, 10, 15, 0, 0, time.UTC)

	// Act
	f.scheduler.dailyTick(context.Background())

	// Assert
	assert.Len(t, f.sink.calls, 1)
	assert.Equal(t, "alert", f.sink.calls[0].kind)
	assert.Equal(t, []string{"r1"}, f.alerts.marked)
}

func TestDailyTickDoesNotMarkAlertOnSendFailure(t *testing.T) {
	f := newFixture(t)
	f.alerts.readings = []model.Reading{
		{ID: "r1", PatientID: "p1", DataType: model.DataTypeBloodSugar, Value: model.NumericValue(260), RiskLevel: model.RiskCritical},
	}
	f.sink.failNext = true
	f.now = time.Date(2025, 3, 10, 10, 15, 0, 0, time.UTC)

	f.scheduler.dailyTick(context.Background())

	assert.Empty(t, f.alerts.marked)
}

func TestReloadKeepsOldSnapshotOnError(t *testing.T) {
	// Arrange
	f := newFixture(t)
	f.patients.err = errors.New("database down")
	f.patients.patients = nil

	// Act
	f.scheduler.reloadSchedule(context.Background())
	f.scheduler.medicationTick(context.Background())

	// Assert: the pre-error snapshot still drives reminders
	assert.Len(t, f.sink.calls, 1)
}

func TestStartIsIdempotentAndStopHalts(t *testing.T) {
	f := newFixture(t)

	err := f.scheduler.Start(context.Background())
	assert.NoError(t, err)
	assert.True(t, f.scheduler.Running())

	err = f.scheduler.Start(context.Background())
	assert.NoError(t, err)

	f.scheduler.Stop()
	assert.False(t, f.scheduler.Running())

	// Stop on a stopped scheduler is a no-op
	f.scheduler.Stop()
}
