package auth

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/beesmart/beesmart/internal/entities"
)

// EventLogger receives authentication events. The audit service
// satisfies it.
type EventLogger interface {
	LogAuth(userID uint, action string, ipAddr, userAgent string, success bool)
}

// AuthController serves the /api/auth endpoints.
type AuthController struct {
	service        *Service
	sessionManager *SessionManager
	rateLimiter    *RateLimiter
	events         EventLogger
	log            logrus.FieldLogger
}

// NewAuthController creates a new authentication controller. events may
// be nil.
func NewAuthController(service *Service, sessionManager *SessionManager, rateLimiter *RateLimiter, events EventLogger, log logrus.FieldLogger) *AuthController {
	return &AuthController{
		service:        service,
		sessionManager: sessionManager,
		rateLimiter:    rateLimiter,
		events:         events,
		log:            log.WithField("component", "auth"),
	}
}

// RegisterRoutes registers authentication routes on the group.
func (ac *AuthController) RegisterRoutes(group *gin.RouterGroup) {
	group.POST("/register", ac.Register)
	group.POST("/login", ac.Login)
	group.POST("/guest", ac.Guest)
	group.POST("/logout", ac.Logout)
	group.GET("/me", ac.Me)
}

// Stop releases the rate limiter's cleanup goroutine.
func (ac *AuthController) Stop() {
	if ac.rateLimiter != nil {
		ac.rateLimiter.Stop()
	}
}

type registerRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates an account and signs it in.
func (ac *AuthController) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if req.ConfirmPassword != "" && req.Password != req.ConfirmPassword {
		c.JSON(http.StatusBadRequest, gin.H{"error": "passwords do not match"})
		return
	}

	user, err := ac.service.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrUserExists):
			c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
		case errors.Is(err, ErrNameRequired),
			errors.Is(err, ErrEmailRequired),
			errors.Is(err, ErrPasswordRequired),
			errors.Is(err, ErrEmailInvalid),
			errors.Is(err, ErrPasswordTooShort),
			errors.Is(err, ErrPasswordTooLong):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			ac.log.WithError(err).Error("registration failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create user"})
		}
		return
	}

	ac.logEvent(c, user.ID, "register", true)
	ac.startSession(c, http.StatusCreated, user)
}

// Login signs in with email and password.
func (ac *AuthController) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	clientIP := c.ClientIP()

	if ac.rateLimiter != nil {
		if allowed, retryAfter := ac.rateLimiter.Allow(clientIP, req.Email); !allowed {
			c.Header("Retry-After", strconv.Itoa(int(retryAfter.Round(time.Second).Seconds())))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "too many login attempts, please try again later",
			})
			return
		}
	}

	user, err := ac.service.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if !errors.Is(err, ErrInvalidCredentials) {
			ac.log.WithError(err).Error("login failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
			return
		}
		if ac.rateLimiter != nil {
			ac.rateLimiter.RecordFailure(clientIP, req.Email)
		}
		ac.logEvent(c, 0, "login", false)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		return
	}

	if ac.rateLimiter != nil {
		ac.rateLimiter.RecordSuccess(clientIP, req.Email)
	}
	ac.logEvent(c, user.ID, "login", true)
	ac.startSession(c, http.StatusOK, user)
}

// Guest signs in as the shared guest account.
func (ac *AuthController) Guest(c *gin.Context) {
	user, err := ac.service.Guest(c.Request.Context())
	if err != nil {
		ac.log.WithError(err).Error("guest sign-in failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "guest sign-in failed"})
		return
	}

	ac.logEvent(c, user.ID, "guest_login", true)
	ac.startSession(c, http.StatusOK, user)
}

// Logout destroys the session.
func (ac *AuthController) Logout(c *gin.Context) {
	if ac.sessionManager != nil {
		userID := ac.sessionManager.GetUserID(c.Request.Context())
		if err := ac.sessionManager.DestroySession(c.Request.Context()); err != nil {
			ac.log.WithError(err).Warn("failed to destroy session")
		} else if err := ac.sessionManager.Persist(c); err != nil {
			ac.log.WithError(err).Warn("failed to expire session cookie")
		}
		if userID != 0 {
			ac.logEvent(c, userID, "logout", true)
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "signed out"})
}

// Me returns the signed-in user and the auth mode.
func (ac *AuthController) Me(c *gin.Context) {
	resp := gin.H{
		"auth_mode": ac.service.GetAuthMode(),
		"user":      nil,
	}

	if userID := GetUserID(c); userID != DefaultUserID {
		user, err := ac.service.GetUserByID(c.Request.Context(), userID)
		if err != nil && !errors.Is(err, ErrUserNotFound) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load user"})
			return
		}
		if user != nil {
			resp["user"] = user
		}
	}

	c.JSON(http.StatusOK, resp)
}

func (ac *AuthController) startSession(c *gin.Context, status int, user *entities.User) {
	if ac.sessionManager != nil {
		err := ac.sessionManager.CreateSession(c.Request.Context(), user)
		if err == nil {
			err = ac.sessionManager.Persist(c)
		}
		if err != nil {
			ac.log.WithError(err).Error("failed to create session")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
			return
		}
	}
	c.JSON(status, gin.H{"user": user})
}

func (ac *AuthController) logEvent(c *gin.Context, userID uint, action string, success bool) {
	if ac.events == nil {
		return
	}
	ac.events.LogAuth(userID, action, c.ClientIP(), c.Request.UserAgent(), success)
}
