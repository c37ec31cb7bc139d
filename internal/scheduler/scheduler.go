// Package scheduler runs the recurring notification loops: medication
// reminders at each medication's dose times, daily motivational emails at
// each patient's preferred time, and health alerts for unsent high-risk
// readings. Each tick covers every whole minute since the previous tick,
// so dose and email times between ticks are still matched; minutes missed
// across an outage longer than one interval are skipped, not replayed, and
// running two instances against one store will duplicate sends.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	rcron "github.com/robfig/cron/v3"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/vitaltrack/backend/internal/audit"
	"github.com/vitaltrack/backend/internal/notify"
	"github.com/vitaltrack/backend/pkg/model"
)

const minuteLayout = "15:04"

// Config holds the scheduler's tick intervals and send policy.
type Config struct {
	MedicationInterval time.Duration
	DailyInterval      time.Duration
	ReloadInterval     time.Duration
	// OperatingHoursStart/End bound sends to waking hours, end exclusive
	OperatingHoursStart int
	OperatingHoursEnd   int
	SendsPerSecond      float64
}

// DefaultConfig returns the production tick cadence.
func DefaultConfig() Config {
	return Config{
		MedicationInterval:  2 * time.Minute,
		DailyInterval:       5 * time.Minute,
		ReloadInterval:      time.Hour,
		OperatingHoursStart: 7,
		OperatingHoursEnd:   22,
		SendsPerSecond:      5,
	}
}

// PatientSource lists the patients the scheduler serves.
type PatientSource interface {
	FindAllWithEmailTime(ctx context.Context) ([]model.Patient, error)
}

// MedicationSource lists active medications; empty patientID means all patients.
type MedicationSource interface {
	FindActive(ctx context.Context, patientID string) ([]model.Medication, error)
}

// ReminderStore records that a reminder was sent.
type ReminderStore interface {
	Create(ctx context.Context, event *model.ReminderEvent) error
}

// AlertSource exposes unsent high-risk readings and their sent flag.
type AlertSource interface {
	FindUnsentHighRisk(ctx context.Context, patientID string, since time.Time) ([]model.Reading, error)
	MarkAlertSent(ctx context.Context, readingID string) error
}

// AnalysisSource provides the adherence and trend context of the daily email.
type AnalysisSource interface {
	ComprehensiveAnalysis(ctx context.Context, patientID string) (*model.AnalysisResult, error)
}

// DailyComposer builds the motivational email content.
type DailyComposer interface {
	ComposeDailyUpdate(ctx context.Context, patient model.Patient, adherence int, trends map[model.DataType]model.Trend) notify.DailyUpdate
}

// SendRecorder receives the outcome of every send attempt.
// Satisfied by audit.Trail.
type SendRecorder interface {
	Record(ctx context.Context, record audit.SendRecord)
}

// snapshot is an immutable view of the schedule, swapped atomically on reload
type snapshot struct {
	patients    []model.Patient
	medications []model.Medication
	patientByID map[string]model.Patient
}

// Scheduler drives the three recurring ticks. All sends go through a shared
// rate limiter and a circuit breaker around the sink; a send failure never
// aborts the rest of a batch.
type Scheduler struct {
	cfg         Config
	patients    PatientSource
	medications MedicationSource
	reminders   ReminderStore
	alerts      AlertSource
	analysis    AnalysisSource
	composer    DailyComposer
	sink        notify.Sink
	recorder    SendRecorder
	logger      *zap.Logger

	// clock is swapped in tests
	clock func() time.Time

	schedule atomic.Pointer[snapshot]
	breaker  *gobreaker.CircuitBreaker[notify.Status]
	limiter  *rate.Limiter

	mu      sync.Mutex
	running bool
	cron    *rcron.Cron
	cancel  context.CancelFunc
	ctx     context.Context

	firedMu    sync.Mutex
	firedDoses map[string]time.Time
	sentDaily  map[string]time.Time

	// cursorMu guards the per-loop tick cursors
	cursorMu      sync.Mutex
	lastMedTick   time.Time
	lastDailyTick time.Time
}

func New(cfg Config, patients PatientSource, medications MedicationSource, reminders ReminderStore,
	alerts AlertSource, analysis AnalysisSource, composer DailyComposer, sink notify.Sink, logger *zap.Logger) *Scheduler {
	s := &Scheduler{
		cfg:         cfg,
		patients:    patients,
		medications: medications,
		reminders:   reminders,
		alerts:      alerts,
		analysis:    analysis,
		composer:    composer,
		sink:        sink,
		logger:      logger,
		clock:       time.Now,
		limiter:     rate.NewLimiter(rate.Limit(cfg.SendsPerSecond), 1),
		firedDoses:  make(map[string]time.Time),
		sentDaily:   make(map[string]time.Time),
	}
	s.schedule.Store(&snapshot{patientByID: make(map[string]model.Patient)})
	s.breaker = gobreaker.NewCircuitBreaker[notify.Status](gobreaker.Settings{
		Name:    "notification-sink",
		Timeout: 60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("notification sink breaker state changed",
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return s
}

// SetAuditTrail attaches a recorder for send outcomes. Must be called
// before Start.
func (s *Scheduler) SetAuditTrail(recorder SendRecorder) {
	s.recorder = recorder
}

// Start loads the schedule and begins the cron loops. Calling Start on a
// running scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.ctx = runCtx
	s.cancel = cancel

	s.reloadSchedule(runCtx)

	startMinute := s.clock().Truncate(time.Minute)
	s.cursorMu.Lock()
	s.lastMedTick = startMinute
	s.lastDailyTick = startMinute
	s.cursorMu.Unlock()

	c := rcron.New()
	jobs := []struct {
		every time.Duration
		run   func()
	}{
		{s.cfg.MedicationInterval, func() { s.medicationTick(runCtx) }},
		{s.cfg.DailyInterval, func() { s.dailyTick(runCtx) }},
		{s.cfg.ReloadInterval, func() { s.reloadSchedule(runCtx) }},
	}
	for _, job := range jobs {
		if _, err := c.AddFunc(fmt.Sprintf("@every %s", job.every), job.run); err != nil {
			cancel()
			return fmt.Errorf("failed to register scheduler job: %w", err)
		}
	}
	c.Start()

	s.cron = c
	s.running = true
	s.logger.Info("scheduler started",
		zap.Duration("medication_interval", s.cfg.MedicationInterval),
		zap.Duration("daily_interval", s.cfg.DailyInterval),
		zap.Duration("reload_interval", s.cfg.ReloadInterval))
	return nil
}

// Stop cancels the cron entries and waits for in-flight ticks to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	c := s.cron
	cancel := s.cancel
	s.cron = nil
	s.cancel = nil
	s.mu.Unlock()

	cancel()
	stopCtx := c.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(5 * time.Second):
		s.logger.Warn("timed out waiting for scheduler jobs to finish")
	}
	s.logger.Info("scheduler stopped")
}

// Running reports whether the scheduler loops are active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// reloadSchedule swaps in a fresh snapshot of patients and active
// medications. On error the previous snapshot stays in place.
func (s *Scheduler) reloadSchedule(ctx context.Context) {
	patients, err := s.patients.FindAllWithEmailTime(ctx)
	if err != nil {
		s.logger.Error("schedule reload failed to load patients", zap.Error(err))
		return
	}
	medications, err := s.medications.FindActive(ctx, "")
	if err != nil {
		s.logger.Error("schedule reload failed to load medications", zap.Error(err))
		return
	}

	byID := make(map[string]model.Patient, len(patients))
	for _, p := range patients {
		byID[p.ID] = p
	}
	s.schedule.Store(&snapshot{patients: patients, medications: medications, patientByID: byID})
	s.logger.Info("schedule reloaded",
		zap.Int("patients", len(patients)),
		zap.Int("active_medications", len(medications)))
}

// medicationTick fires a reminder for every active medication with a dose
// time in the minutes covered by this tick, at most once per
// (medication, minute).
func (s *Scheduler) medicationTick(ctx context.Context) {
	now := s.clock()
	snap := s.schedule.Load()

	for _, minute := range s.tickMinutes(&s.lastMedTick, now, s.cfg.MedicationInterval) {
		if !s.withinOperatingHours(minute) {
			continue
		}
		target := minute.Format(minuteLayout)

		for _, med := range snap.medications {
			if !dueAt(med, target) || !s.markFired(s.firedDoses, med.ID, minute) {
				continue
			}
			patient, ok := snap.patientByID[med.PatientID]
			if !ok {
				s.logger.Warn("medication references unknown patient",
					zap.String("medication_id", med.ID),
					zap.String("patient_id", med.PatientID))
				continue
			}

			event := &model.ReminderEvent{
				ID:           uuid.New().String(),
				PatientID:    patient.ID,
				MedicationID: &med.ID,
				Type:         model.ReminderMedication,
				ScheduledFor: minute,
				CreatedAt:    now,
			}
			if err := s.reminders.Create(ctx, event); err != nil {
				s.logger.Error("failed to record reminder, abandoning tick",
					zap.String("medication_id", med.ID),
					zap.Error(err))
				return
			}

			s.send(ctx, audit.KindMedicationReminder, patient.ID, med.ID, func(sendCtx context.Context) (notify.Status, error) {
				return s.sink.SendMedicationReminder(sendCtx, patient, med)
			})
		}
	}
}

// dailyTick sends the motivational email to patients whose preferred time
// falls in the minutes covered by this tick, then alerts on unsent
// high-risk readings.
func (s *Scheduler) dailyTick(ctx context.Context) {
	now := s.clock()
	snap := s.schedule.Load()

	for _, minute := range s.tickMinutes(&s.lastDailyTick, now, s.cfg.DailyInterval) {
		if !s.withinOperatingHours(minute) {
			continue
		}
		target := minute.Format(minuteLayout)

		for _, patient := range snap.patients {
			if len(patient.PreferredEmailTime) < len(minuteLayout) ||
				patient.PreferredEmailTime[:len(minuteLayout)] != target {
				continue
			}
			if !s.markFired(s.sentDaily, patient.ID, minute) {
				continue
			}
			s.sendDailyUpdate(ctx, patient, minute)
		}
	}

	if s.withinOperatingHours(now) {
		s.sendHealthAlerts(ctx, snap, now)
	}
}

func (s *Scheduler) sendDailyUpdate(ctx context.Context, patient model.Patient, minute time.Time) {
	adherence := 100
	var trends map[model.DataType]model.Trend
	if result, err := s.analysis.ComprehensiveAnalysis(ctx, patient.ID); err != nil {
		s.logger.Warn("daily update analysis failed, composing without context",
			zap.String("patient_id", patient.ID),
			zap.Error(err))
	} else {
		if result.AdherenceScore != nil {
			adherence = *result.AdherenceScore
		}
		trends = result.Trends
	}

	update := s.composer.ComposeDailyUpdate(ctx, patient, adherence, trends)
	s.send(ctx, audit.KindDailyUpdate, patient.ID, "", func(sendCtx context.Context) (notify.Status, error) {
		return s.sink.SendMotivationalEmail(sendCtx, patient, update)
	})

	event := &model.ReminderEvent{
		ID:           uuid.New().String(),
		PatientID:    patient.ID,
		Type:         model.ReminderDailyUpdate,
		ScheduledFor: minute,
		CreatedAt:    s.clock(),
	}
	if err := s.reminders.Create(ctx, event); err != nil {
		s.logger.Error("failed to record daily update event",
			zap.String("patient_id", patient.ID),
			zap.Error(err))
	}
}

// sendHealthAlerts delivers at most one alert per high-risk reading of the
// last 24 hours. Readings are marked sent only after a successful delivery,
// so a failed send is retried on the next tick.
func (s *Scheduler) sendHealthAlerts(ctx context.Context, snap *snapshot, now time.Time) {
	since := now.Add(-24 * time.Hour)
	for _, patient := range snap.patients {
		readings, err := s.alerts.FindUnsentHighRisk(ctx, patient.ID, since)
		if err != nil {
			s.logger.Error("failed to load high-risk readings, abandoning tick",
				zap.String("patient_id", patient.ID),
				zap.Error(err))
			return
		}
		for _, reading := range readings {
			status := s.send(ctx, audit.KindHealthAlert, patient.ID, reading.ID, func(sendCtx context.Context) (notify.Status, error) {
				return s.sink.SendHealthAlert(sendCtx, patient, reading, reading.AnalysisSnapshot)
			})
			if status == notify.StatusFailed {
				continue
			}
			if err := s.alerts.MarkAlertSent(ctx, reading.ID); err != nil {
				s.logger.Error("failed to mark alert sent",
					zap.String("reading_id", reading.ID),
					zap.Error(err))
			}
		}
	}
}

// send runs one delivery through the rate limiter and circuit breaker,
// then records the outcome on the audit trail.
func (s *Scheduler) send(ctx context.Context, kind audit.NotificationKind, patientID, subjectID string, fn func(context.Context) (notify.Status, error)) notify.Status {
	if err := s.limiter.Wait(ctx); err != nil {
		return notify.StatusFailed
	}
	status, err := s.breaker.Execute(func() (notify.Status, error) {
		return fn(ctx)
	})
	detail := ""
	if err != nil {
		status = notify.StatusFailed
		detail = err.Error()
		s.logger.Error("notification send failed",
			zap.String("kind", string(kind)),
			zap.String("patient_id", patientID),
			zap.Error(err))
	} else {
		s.logger.Info("notification sent",
			zap.String("kind", string(kind)),
			zap.String("patient_id", patientID),
			zap.String("status", string(status)))
	}
	if s.recorder != nil {
		s.recorder.Record(ctx, audit.SendRecord{
			PatientID: patientID,
			Kind:      kind,
			SubjectID: subjectID,
			Status:    string(status),
			Detail:    detail,
			SentAt:    s.clock(),
		})
	}
	return status
}

// tickMinutes returns every whole minute since the previous tick of this
// loop, oldest first, and advances the cursor. A tick lands wherever the
// cron grid puts it, so target minutes between ticks must still be
// covered. The window never reaches back more than lookback; minutes
// missed across a longer outage are skipped, not replayed.
func (s *Scheduler) tickMinutes(cursor *time.Time, now time.Time, lookback time.Duration) []time.Time {
	s.cursorMu.Lock()
	defer s.cursorMu.Unlock()

	end := now.Truncate(time.Minute)
	start := end.Add(-lookback)
	if cursor.After(start) {
		start = *cursor
	}
	*cursor = end

	var minutes []time.Time
	for m := start.Add(time.Minute); !m.After(end); m = m.Add(time.Minute) {
		minutes = append(minutes, m)
	}
	return minutes
}

func (s *Scheduler) withinOperatingHours(now time.Time) bool {
	hour := now.Hour()
	return hour >= s.cfg.OperatingHoursStart && hour < s.cfg.OperatingHoursEnd
}

// markFired records a fire for the given key and minute. It returns false
// when the key already fired this minute; entries from past minutes are
// pruned as a side effect.
func (s *Scheduler) markFired(fired map[string]time.Time, key string, minute time.Time) bool {
	s.firedMu.Lock()
	defer s.firedMu.Unlock()
	for k, m := range fired {
		if !m.Equal(minute) {
			delete(fired, k)
		}
	}
	if m, ok := fired[key]; ok && m.Equal(minute) {
		return false
	}
	fired[key] = minute
	return true
}

func dueAt(med model.Medication, minute string) bool {
	for _, doseTime := range med.DoseTimes {
		if doseTime == minute {
			return true
		}
	}
	return false
}
