// KontrakPro - Contract Lifecycle Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kontrakpro

/*
Package auth authenticates API callers.

KontrakPro does not issue credentials. Callers present an HS256 bearer token
minted by the identity service and signed with the shared JWT_SECRET:

	Authorization: Bearer <token>

The token's claims become an AuthSubject in the request context:

  - sub (or username): subject ID, recorded as created_by and audit actor
  - role: viewer, editor or admin; SECURITY_DEFAULT_ROLE when absent
  - org_id: organization scope

Authentication Modes:

  - jwt: bearer token required; 401 UNAUTHORIZED otherwise
  - none: every request runs as "anonymous" with the default role. Refused
    in production by config validation.

Usage:

	mw, err := auth.NewMiddleware(&cfg.Security)
	if err != nil {
	    return err
	}
	r.Use(mw.Authenticate)

	// in a handler
	subject := auth.GetAuthSubject(r.Context())

Authorization decisions (which role may do what) live in internal/authz.
*/
package auth
