package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"ledger-service/internal/httputil"
	"ledger-service/internal/model"
	"ledger-service/internal/policy"
	"ledger-service/pkg/database"
	"ledger-service/pkg/logger"
)

// ListUsers returns users visible to the caller, newest first. A
// SUPER_ADMIN may scope to any organization (or none); everyone else is
// pinned to their own.
func ListUsers(c echo.Context) error {
	identity, ok := requireIdentity(c)
	if !ok {
		return httputil.Unauthorized(c)
	}

	page, limit, offset := httputil.ParsePagination(c)
	requested := parseOptionalUint(c.QueryParam("organization_id"))
	scope := policy.EffectiveOrganizationFilter(identity, requested)

	query := database.GetDB().Model(&model.User{})
	if scope != nil {
		query = query.Where("organization_id = ?", *scope)
	}
	if search := c.QueryParam("search"); search != "" {
		query = query.Where("name ILIKE ? OR email ILIKE ?", "%"+search+"%", "%"+search+"%")
	}
	if role := c.QueryParam("role"); role != "" {
		query = query.Where("role = ?", role)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return httputil.Internal(c, "failed to retrieve users")
	}
	var users []model.User
	if err := query.Preload("Organization").Order("created_at DESC").
		Limit(limit).Offset(offset).Find(&users).Error; err != nil {
		return httputil.Internal(c, "failed to retrieve users")
	}

	return httputil.Paginated(c, users, total, page, limit)
}

// GetUser returns one user, subject to organization scope.
func GetUser(c echo.Context) error {
	identity, ok := requireIdentity(c)
	if !ok {
		return httputil.Unauthorized(c)
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return httputil.BadRequest(c, "invalid user ID")
	}

	var user model.User
	if result := database.GetDB().Preload("Organization").First(&user, uint(id)); result.Error != nil {
		return httputil.NotFound(c, "User")
	}
	if !policy.CanAccessOrganization(identity, user.OrganizationID) {
		return httputil.Forbidden(c, "")
	}

	return httputil.OK(c, user, "")
}

type updateUserRequest struct {
	Name     string `json:"name"`
	Role     string `json:"role"`
	Password string `json:"password"`
}

// UpdateUser changes a user's name, role or password. Requires a
// privileged role within the target's organization.
func UpdateUser(c echo.Context) error {
	log := logger.FromContext(c)
	identity, ok := requireIdentity(c)
	if !ok {
		return httputil.Unauthorized(c)
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return httputil.BadRequest(c, "invalid user ID")
	}

	db := database.GetDB()
	var user model.User
	if result := db.First(&user, uint(id)); result.Error != nil {
		return httputil.NotFound(c, "User")
	}
	if !policy.CanManageUsers(identity, user.OrganizationID) {
		return httputil.Forbidden(c, string(model.RoleAdminLini))
	}

	var req updateUserRequest
	if err := c.Bind(&req); err != nil {
		return httputil.BadRequest(c, "invalid request")
	}

	if req.Name != "" {
		user.Name = req.Name
	}
	if req.Role != "" {
		role := model.Role(req.Role)
		if !role.Valid() {
			return httputil.BadRequest(c, "invalid role")
		}
		// Only a SUPER_ADMIN may grant the SUPER_ADMIN role.
		if role == model.RoleSuperAdmin && !identity.IsGlobalAdmin() {
			return httputil.Forbidden(c, string(model.RoleSuperAdmin))
		}
		user.Role = role
	}
	if req.Password != "" {
		if len(req.Password) < 6 {
			return httputil.BadRequest(c, "password must be at least 6 characters")
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			log.Error("Failed to hash password", zap.Error(err))
			return httputil.Internal(c, "user update failed")
		}
		user.Password = string(hashed)
	}

	if result := db.Save(&user); result.Error != nil {
		log.Error("Failed to update user", zap.Error(result.Error))
		return httputil.Internal(c, "user update failed")
	}

	log.Info("User updated", zap.Uint("id", user.ID), zap.String("role", string(user.Role)))
	return httputil.OK(c, user, "User updated successfully")
}

// DeleteUser removes a user. Self-deletion is refused.
func DeleteUser(c echo.Context) error {
	log := logger.FromContext(c)
	identity, ok := requireIdentity(c)
	if !ok {
		return httputil.Unauthorized(c)
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return httputil.BadRequest(c, "invalid user ID")
	}
	if uint(id) == identity.UserID {
		return httputil.BadRequest(c, "cannot delete your own account")
	}

	db := database.GetDB()
	var user model.User
	if result := db.First(&user, uint(id)); result.Error != nil {
		return httputil.NotFound(c, "User")
	}
	if !policy.CanManageUsers(identity, user.OrganizationID) {
		return httputil.Forbidden(c, string(model.RoleAdminLini))
	}

	if result := db.Delete(&user); result.Error != nil {
		log.Error("Failed to delete user", zap.Error(result.Error))
		return httputil.Internal(c, "user deletion failed")
	}

	log.Info("User deleted", zap.Uint("id", user.ID))
	return httputil.OK(c, nil, "User deleted successfully")
}
