// KontrakPro - Contract Lifecycle Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kontrakpro

/*
Package services adapts KontrakPro components to suture.Service.

HTTPServerService turns http.Server's blocking ListenAndServe into a
context-aware Serve with bounded graceful shutdown.

SchedulerService turns the report scheduler's Start/Stop pair into Serve.
Stop waits for runs already in flight.

The audit logger implements Serve itself and is added to the tree directly.
*/
package services
