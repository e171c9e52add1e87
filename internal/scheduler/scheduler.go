// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs periodic maintenance jobs: ledger/grant
// reconciliation, event log pruning, and GeoIP database reloads.
package scheduler

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/olegiv/inkwell-go/internal/geoip"
	"github.com/olegiv/inkwell-go/internal/ledger"
	"github.com/olegiv/inkwell-go/internal/store"
)

// EventRetention is how long audit events are kept before pruning.
const EventRetention = 90 * 24 * time.Hour

// Scheduler owns the cron runner and the maintenance jobs.
type Scheduler struct {
	db     *sql.DB
	ledger *ledger.Service
	geo    *geoip.Lookup
	cron   *cron.Cron
	logger *slog.Logger
}

// New creates a scheduler instance. geo may be nil when GeoIP is disabled.
func New(db *sql.DB, ledgerSvc *ledger.Service, geo *geoip.Lookup, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		db:     db,
		ledger: ledgerSvc,
		geo:    geo,
		cron:   cron.New(),
		logger: logger,
	}
}

// Start registers the maintenance jobs and begins running them.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("@hourly", s.reconcileGrants); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("@daily", s.pruneEvents); err != nil {
		return err
	}
	if s.geo != nil {
		if _, err := s.cron.AddFunc("@daily", s.reloadGeoIP); err != nil {
			return err
		}
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
	return nil
}

// Stop gracefully stops the scheduler, waiting for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// reconcileGrants repairs any drift between completed orders and grants.
func (s *Scheduler) reconcileGrants() {
	result, err := s.ledger.Reconcile(context.Background())
	if err != nil {
		s.logger.Error("grant reconciliation failed", "error", err)
		return
	}
	if result.Granted > 0 || result.Removed > 0 {
		s.logger.Info("grant reconciliation applied changes",
			"granted", result.Granted, "removed", result.Removed)
	}
}

// pruneEvents deletes audit events past the retention window.
func (s *Scheduler) pruneEvents() {
	cutoff := time.Now().Add(-EventRetention)
	n, err := store.New(s.db).DeleteEventsBefore(context.Background(), cutoff)
	if err != nil {
		s.logger.Error("event pruning failed", "error", err)
		return
	}
	if n > 0 {
		s.logger.Info("pruned old audit events", "deleted", n, "cutoff", cutoff)
	}
}

// reloadGeoIP picks up a refreshed GeoIP database file.
func (s *Scheduler) reloadGeoIP() {
	if err := s.geo.Reload(); err != nil {
		s.logger.Warn("GeoIP reload failed", "error", err)
	}
}
