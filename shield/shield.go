// Package shield provides reusable HTTP middleware for the public API:
// security headers, request body limits, and SQLite-backed per-IP rate
// limiting.
//
// Usage:
//
//	r := chi.NewRouter()
//	r.Use(shield.SecurityHeaders(shield.DefaultHeaders()))
//	r.Use(shield.MaxJSONBody(1 << 20))
//	rl := shield.NewRateLimiter(db, "/health")
//	rl.StartReloader(done)
//	r.Use(rl.Middleware)
package shield
