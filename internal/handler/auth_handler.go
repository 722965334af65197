package handler

import (
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"ledger-service/internal/httputil"
	"ledger-service/internal/model"
	"ledger-service/internal/policy"
	"ledger-service/pkg/database"
	"ledger-service/pkg/logger"
	"ledger-service/prometheus"
)

// Login authenticates a user by email and password and issues a token.
// Unknown email and wrong password are indistinguishable to the caller.
func Login(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.LoginCounter.Inc()

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse login request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return httputil.BadRequest(c, "invalid request")
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var user model.User
	if result := database.GetDB().Preload("Organization").Where("email = ?", req.Email).First(&user); result.Error != nil {
		log.Warn("Login for unknown email", zap.String("email", req.Email))
		prometheus.RecordAuthError("user_not_found")
		return httputil.BadRequest(c, "invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		log.Warn("Invalid password", zap.String("email", req.Email))
		prometheus.RecordAuthError("invalid_password")
		return httputil.BadRequest(c, "invalid email or password")
	}

	token, err := jwtUtil.GenerateToken(&user)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		prometheus.RecordAuthError("token_generation_failed")
		return httputil.Internal(c, "token error")
	}

	log.Info("User logged in",
		zap.Uint("user_id", user.ID),
		zap.Uint("organization_id", user.OrganizationID),
		zap.String("role", string(user.Role)))

	return httputil.OK(c, echo.Map{
		"token":      token,
		"token_type": "Bearer",
		"user": echo.Map{
			"id":           user.ID,
			"name":         user.Name,
			"email":        user.Email,
			"role":         user.Role,
			"created_at":   user.CreatedAt,
			"organization": user.Organization,
		},
	}, "Login successful")
}

// Me returns the authenticated user's profile.
func Me(c echo.Context) error {
	identity, ok := requireIdentity(c)
	if !ok {
		return httputil.Unauthorized(c)
	}

	var user model.User
	if result := database.GetDB().Preload("Organization").First(&user, identity.UserID); result.Error != nil {
		return httputil.NotFound(c, "User")
	}

	return httputil.OK(c, echo.Map{
		"id":           user.ID,
		"name":         user.Name,
		"email":        user.Email,
		"role":         user.Role,
		"organization": user.Organization,
	}, "")
}

// Register creates a new user. Privileged roles only; a non-global
// admin always registers into their own organization regardless of the
// requested one.
func Register(c echo.Context) error {
	log := logger.FromContext(c)
	identity, ok := requireIdentity(c)
	if !ok {
		return httputil.Unauthorized(c)
	}
	if !identity.IsPrivileged() {
		return httputil.Forbidden(c, "")
	}

	var req struct {
		Name           string     `json:"name"`
		Email          string     `json:"email"`
		Password       string     `json:"password"`
		Role           model.Role `json:"role"`
		OrganizationID *uint      `json:"organization_id"`
	}
	if err := c.Bind(&req); err != nil {
		return httputil.BadRequest(c, "invalid request")
	}
	if req.Name == "" || req.Email == "" || len(req.Password) < 6 {
		return httputil.BadRequest(c, "name, email and a password of at least 6 characters are required")
	}
	if req.Role == "" {
		req.Role = model.RoleStaff
	}
	if !req.Role.Valid() {
		return httputil.BadRequest(c, "unknown role")
	}

	targetOrgID := policy.TargetOrganizationForNewUser(identity, req.OrganizationID)
	if !policy.CanManageUsers(identity, targetOrgID) {
		return httputil.Forbidden(c, "")
	}

	db := database.GetDB()

	var existing model.User
	if result := db.Select("id").Where("email = ?", req.Email).First(&existing); result.Error == nil {
		return httputil.Conflict(c, "Email is already registered")
	}

	var targetOrg model.Organization
	if result := db.First(&targetOrg, targetOrgID); result.Error != nil {
		return httputil.BadRequest(c, "target organization not found")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		return httputil.Internal(c, "registration failed")
	}

	user := model.User{
		OrganizationID: targetOrgID,
		Name:           req.Name,
		Email:          req.Email,
		Password:       string(hash),
		Role:           req.Role,
	}
	if result := db.Create(&user); result.Error != nil {
		log.Error("Failed to create user", zap.Error(result.Error))
		return httputil.Internal(c, "registration failed")
	}

	prometheus.RegisterCounter.Inc()
	log.Info("User registered",
		zap.Uint("user_id", user.ID),
		zap.Uint("organization_id", user.OrganizationID),
		zap.String("role", string(user.Role)))

	return httputil.OK(c, echo.Map{
		"id":         user.ID,
		"name":       user.Name,
		"email":      user.Email,
		"role":       user.Role,
		"created_at": user.CreatedAt,
		"organization": echo.Map{
			"id":   targetOrg.ID,
			"name": targetOrg.Name,
			"slug": targetOrg.Slug,
		},
	}, "User registered successfully")
}

// ChangePassword updates the caller's own password after verifying the
// current one.
func ChangePassword(c echo.Context) error {
	log := logger.FromContext(c)
	identity, ok := requireIdentity(c)
	if !ok {
		return httputil.Unauthorized(c)
	}

	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := c.Bind(&req); err != nil {
		return httputil.BadRequest(c, "invalid request")
	}
	if len(req.NewPassword) < 6 {
		return httputil.BadRequest(c, "new password must be at least 6 characters")
	}

	db := database.GetDB()
	var user model.User
	if result := db.First(&user, identity.UserID); result.Error != nil {
		return httputil.NotFound(c, "User")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)); err != nil {
		prometheus.RecordAuthError("invalid_password")
		return httputil.BadRequest(c, "current password is incorrect")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		return httputil.Internal(c, "password change failed")
	}

	if err := db.Model(&user).Update("password", string(hash)).Error; err != nil {
		log.Error("Failed to update password", zap.Error(err))
		return httputil.Internal(c, "password change failed")
	}

	return httputil.OK(c, nil, "Password changed successfully")
}
