// Package auth provides sign-in for the HTTP API.
//
// It supports two authentication modes:
//   - "none": No authentication required (default), all requests run as the default user
//   - "local": Email and password accounts plus a shared guest account, tracked with session cookies
//
// # Configuration
//
// Set AUTH_MODE environment variable to select the mode:
//
//	AUTH_MODE=none   # Default, no auth required
//	AUTH_MODE=local  # Requires register, login or guest sign-in
//
// For local mode, additional configuration:
//
//	AUTH_SESSION_LIFETIME=168h        # Session duration
//	AUTH_BCRYPT_COST=12               # bcrypt cost factor
//	AUTH_SECURE_COOKIES=true          # HTTPS-only cookies
//	AUTH_MAX_LOGIN_ATTEMPTS=5         # Failed logins before lockout
//	AUTH_RATE_LIMIT_WINDOW=15m
//	AUTH_LOCKOUT_DURATION=30m
//
// # Usage
//
// Initialize authentication in entrypoint:
//
//	authService := auth.NewService(users.NewRepository(db.DB), cfg.Auth, log)
//	sessions, _ := auth.NewSessionManager(db, cfg.Auth)
//	router.Use(sessions.SessionLoadSave())
//	router.Use(auth.NewMiddleware(authService, sessions, cfg.Auth).Handler())
//
// Extract user in handlers:
//
//	userID := auth.GetUserID(c)  // Returns DefaultUserID in "none" mode
//	ref := auth.UserRef(c)       // nil for the default user
package auth
