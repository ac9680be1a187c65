// KontrakPro - Contract Lifecycle Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kontrakpro

// Package authz decides which role may use which API resource, using Casbin.
//
// Request flow:
//
//	Request -> auth.Authenticate -> authz.Require(object, action) -> Handler
//
// Objects are resources (analytics, reports, dashboards, audit), not paths.
// The embedded policy grants:
//
//	viewer  analytics read/export, reports read, dashboards read
//	editor  viewer + reports write/run/delete, dashboards write/delete
//	admin   everything, including the audit trail
//
// Model and policy can be replaced by files at startup. Decisions are cached
// per (subject, object, action) for CacheTTL.
package authz
