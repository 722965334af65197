// Package handler exposes the HTTP surface: auth, organizations,
// users, financial logs and the dashboard analytics views. Handlers
// resolve the caller's effective scope through the policy package
// before touching storage and shape every reply with httputil.
package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"ledger-service/internal/cache"
	"ledger-service/internal/middleware"
	"ledger-service/internal/policy"
	"ledger-service/pkg/jwtutil"
	"ledger-service/pkg/storage"
)

var (
	jwtUtil     *jwtutil.JWTUtil
	objectStore *storage.ObjectStore
	reportCache *cache.ReportCache
)

// Init wires the handler package's collaborators. objectStore and
// reports may be nil, disabling attachments and report caching.
func Init(jwt *jwtutil.JWTUtil, store *storage.ObjectStore, reports *cache.ReportCache) {
	jwtUtil = jwt
	objectStore = store
	reportCache = reports
}

// requireIdentity pulls the resolved identity out of the request
// context. A missing identity means the auth middleware did not run or
// rejected the request already.
func requireIdentity(c echo.Context) (policy.Identity, bool) {
	return middleware.IdentityFromContext(c)
}

// parseOptionalUint reads an optional numeric query parameter. An
// absent or malformed value yields nil; the policy layer decides what a
// requested scope means, so nothing is validated here.
func parseOptionalUint(raw string) *uint {
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return nil
	}
	u := uint(v)
	return &u
}
