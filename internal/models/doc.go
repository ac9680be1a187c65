// KontrakPro - Contract Lifecycle Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kontrakpro

/*
Package models defines the persisted records and HTTP payloads shared by the
database, api and scheduler packages.

Key Components:

  - APIResponse, APIError, Metadata: the envelope every endpoint returns
  - Report, ReportRun: saved analytics requests and their execution history
  - Dashboard, DashboardWidget: grouped widgets, each holding an analytics request
  - Create/Update request types carrying validator/v10 tags

The analytics request itself lives in the analytics package; models embed it
by pointer so a stored report decodes to the exact request that compiles.
*/
package models
