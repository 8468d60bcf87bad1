package cron

import (
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/vetcaselab/vetcase-api/model"
	"gorm.io/gorm"
)

// CronManager manages all scheduled background jobs
type CronManager struct {
	cron *cron.Cron
	db   *gorm.DB
}

// NewCronManager creates a new cron manager
func NewCronManager(db *gorm.DB) *CronManager {
	return &CronManager{
		cron: cron.New(),
		db:   db,
	}
}

// Start registers all jobs and starts the scheduler
func (m *CronManager) Start() error {
	log.Println("Starting cron jobs...")

	if err := m.registerJobs(); err != nil {
		return err
	}

	m.cron.Start()

	log.Println("Cron jobs started successfully")
	return nil
}

// Stop stops the scheduler and waits for running jobs to finish
func (m *CronManager) Stop() {
	log.Println("Stopping cron jobs...")
	ctx := m.cron.Stop()
	<-ctx.Done()
	log.Println("Cron jobs stopped")
}

func (m *CronManager) registerJobs() error {
	// Hourly: cancel payments that sat pending too long
	_, err := m.cron.AddFunc("0 * * * *", func() {
		m.run("expire_stale_payments", m.ExpireStalePayments)
	})
	if err != nil {
		return err
	}

	// Daily at 3 AM: purge old read notifications
	_, err = m.cron.AddFunc("0 3 * * *", func() {
		m.run("cleanup_notifications", m.CleanupNotifications)
	})
	if err != nil {
		return err
	}

	// Daily at 4 AM: recompute user profile statistics from source rows
	_, err = m.cron.AddFunc("0 4 * * *", func() {
		m.run("recompute_profiles", m.RecomputeProfiles)
	})
	if err != nil {
		return err
	}

	log.Println("All cron jobs registered successfully")
	return nil
}

// run wraps a job with database execution logging
func (m *CronManager) run(jobName string, job func() (string, error)) {
	log.Printf("[CRON] Starting job: %s at %s", jobName, time.Now().Format(time.RFC3339))

	entry := model.CronJobLog{
		JobName:   jobName,
		Status:    "running",
		StartedAt: time.Now(),
	}
	m.db.Create(&entry)

	message, err := job()

	now := time.Now()
	updates := map[string]interface{}{
		"completed_at": now,
		"duration":     int(now.Sub(entry.StartedAt).Milliseconds()),
	}
	if err != nil {
		log.Printf("[CRON] Error in job: %s - %v", jobName, err)
		updates["status"] = "failed"
		updates["error_msg"] = err.Error()
	} else {
		log.Printf("[CRON] Completed job: %s - %s", jobName, message)
		updates["status"] = "completed"
		updates["message"] = message
	}
	m.db.Model(&model.CronJobLog{}).Where("id = ?", entry.ID).Updates(updates)
}
