// KontrakPro - Contract Lifecycle Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kontrakpro

/*
Package supervisor provides process supervision for KontrakPro using suture v4.

Long-running services are organized into two layers so that a failing
background worker never takes the API down:

	RootSupervisor ("kontrakpro")
	├── BackgroundSupervisor ("background-layer")
	│   ├── SchedulerService (if SCHEDULER_ENABLED)
	│   └── audit.Logger retention loop (if AUDIT_ENABLED)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

Crashed services are restarted with suture's failure decay and backoff.
Cancelling the context passed to Serve stops every service, waiting up to
ShutdownTimeout for each.

# Usage

	tree, err := supervisor.NewSupervisorTree(slogLogger, supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddBackgroundService(services.NewSchedulerService(sched))
	tree.AddBackgroundService(auditLogger)
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
	    logging.Error().Err(err).Msg("Supervisor stopped")
	}

# Service Contract

Every service implements suture.Service. Returning nil stops it for good,
returning an error restarts it, and a canceled context must make Serve
return promptly.

# What Is Not Supervised

The DuckDB store, the analytics executor and the result cache are
libraries owned by main, opened before the tree starts and closed after it
stops.

Events are logged through sutureslog, which adapts suture's hooks to slog.
*/
package supervisor
