// KontrakPro - Contract Lifecycle Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kontrakpro

/*
Package scheduler runs saved reports on cron schedules.

A Scheduler polls the store every CheckInterval for reports whose
next_run_at has passed and hands each one to a Runner, at most
MaxConcurrent at a time and each bounded by ExecutionTimeout. The Runner
executes the stored request through the analytics engine, writes a CSV,
XLSX or JSON artifact under the output directory, records a ReportRun and
advances next_run_at from the report's cron expression and timezone.

The HTTP layer uses the same Runner for manual runs, which record a run
with trigger "manual" and leave next_run_at unchanged.

Cron expressions use the standard five fields (minute hour day-of-month
month day-of-week) plus the @hourly, @daily, @weekly, @monthly and
@yearly descriptors.

The scheduler is started and stopped by the supervisor tree through
services.SchedulerService.
*/
package scheduler
