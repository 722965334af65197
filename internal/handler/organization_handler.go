package handler

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"ledger-service/internal/httputil"
	"ledger-service/internal/model"
	"ledger-service/internal/policy"
	"ledger-service/pkg/database"
	"ledger-service/pkg/logger"
	"ledger-service/pkg/storage"
)

// ListOrganizations returns organizations. SUPER_ADMIN sees all with
// search/filter; everyone else only their own.
func ListOrganizations(c echo.Context) error {
	identity, ok := requireIdentity(c)
	if !ok {
		return httputil.Unauthorized(c)
	}

	page, limit, offset := httputil.ParsePagination(c)
	db := database.GetDB()

	if !identity.IsGlobalAdmin() {
		var org model.Organization
		if result := db.First(&org, identity.OrganizationID); result.Error != nil {
			return httputil.NotFound(c, "Organization")
		}
		presignLogo(c, &org)
		return httputil.Paginated(c, []model.Organization{org}, 1, page, limit)
	}

	query := db.Model(&model.Organization{})
	if search := c.QueryParam("search"); search != "" {
		query = query.Where("name ILIKE ?", "%"+search+"%")
	}
	if raw := c.QueryParam("is_center"); raw != "" {
		if isCenter, err := strconv.ParseBool(raw); err == nil {
			query = query.Where("is_center = ?", isCenter)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return httputil.Internal(c, "failed to retrieve organizations")
	}
	var orgs []model.Organization
	if err := query.Order("name ASC").Limit(limit).Offset(offset).Find(&orgs).Error; err != nil {
		return httputil.Internal(c, "failed to retrieve organizations")
	}
	for i := range orgs {
		presignLogo(c, &orgs[i])
	}

	return httputil.Paginated(c, orgs, total, page, limit)
}

// GetOrganization returns one organization with its user count.
func GetOrganization(c echo.Context) error {
	identity, ok := requireIdentity(c)
	if !ok {
		return httputil.Unauthorized(c)
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return httputil.BadRequest(c, "invalid organization ID")
	}
	if !policy.CanAccessOrganization(identity, uint(id)) {
		return httputil.Forbidden(c, "")
	}

	db := database.GetDB()
	var org model.Organization
	if result := db.First(&org, uint(id)); result.Error != nil {
		return httputil.NotFound(c, "Organization")
	}

	var userCount int64
	db.Model(&model.User{}).Where("organization_id = ?", org.ID).Count(&userCount)
	presignLogo(c, &org)

	return httputil.OK(c, echo.Map{
		"organization": org,
		"user_count":   userCount,
	}, "")
}

// ListOrganizationUsers returns the members of an organization.
func ListOrganizationUsers(c echo.Context) error {
	identity, ok := requireIdentity(c)
	if !ok {
		return httputil.Unauthorized(c)
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return httputil.BadRequest(c, "invalid organization ID")
	}
	if !policy.CanAccessOrganization(identity, uint(id)) {
		return httputil.Forbidden(c, "")
	}

	page, limit, offset := httputil.ParsePagination(c)
	query := database.GetDB().Model(&model.User{}).Where("organization_id = ?", uint(id))
	if search := c.QueryParam("search"); search != "" {
		query = query.Where("name ILIKE ?", "%"+search+"%")
	}
	if role := c.QueryParam("role"); role != "" {
		query = query.Where("role = ?", role)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return httputil.Internal(c, "failed to retrieve users")
	}
	var users []model.User
	if err := query.Order("name ASC").Limit(limit).Offset(offset).Find(&users).Error; err != nil {
		return httputil.Internal(c, "failed to retrieve users")
	}

	return httputil.Paginated(c, users, total, page, limit)
}

type organizationRequest struct {
	Name     string  `json:"name"`
	Slug     string  `json:"slug"`
	IsCenter *bool   `json:"is_center"`
	Address  *string `json:"address"`
	Phone    *string `json:"phone"`
	Email    *string `json:"email"`
	Website  *string `json:"website"`
}

// CreateOrganization registers a new organization. SUPER_ADMIN only.
func CreateOrganization(c echo.Context) error {
	log := logger.FromContext(c)
	identity, ok := requireIdentity(c)
	if !ok {
		return httputil.Unauthorized(c)
	}
	if !policy.CanManageOrganizations(identity) {
		return httputil.Forbidden(c, string(model.RoleSuperAdmin))
	}

	var req organizationRequest
	if err := c.Bind(&req); err != nil {
		return httputil.BadRequest(c, "invalid request")
	}
	if len(req.Name) < 2 || len(req.Slug) < 2 {
		return httputil.BadRequest(c, "name and slug are required")
	}
	slug := strings.ToLower(req.Slug)

	db := database.GetDB()
	var existing model.Organization
	if result := db.Select("id").Where("slug = ?", slug).First(&existing); result.Error == nil {
		return httputil.Conflict(c, "Organization slug already exists")
	}

	org := model.Organization{
		Name:    req.Name,
		Slug:    slug,
		Address: req.Address,
		Phone:   req.Phone,
		Email:   req.Email,
		Website: req.Website,
	}
	if req.IsCenter != nil {
		org.IsCenter = *req.IsCenter
	}
	if result := db.Create(&org); result.Error != nil {
		log.Error("Failed to create organization", zap.Error(result.Error))
		return httputil.Internal(c, "organization creation failed")
	}

	log.Info("Organization created", zap.Uint("id", org.ID), zap.String("slug", org.Slug))
	return httputil.Created(c, org, "Organization created successfully")
}

// UpdateOrganization updates organization fields. SUPER_ADMIN only.
func UpdateOrganization(c echo.Context) error {
	log := logger.FromContext(c)
	identity, ok := requireIdentity(c)
	if !ok {
		return httputil.Unauthorized(c)
	}
	if !policy.CanManageOrganizations(identity) {
		return httputil.Forbidden(c, string(model.RoleSuperAdmin))
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return httputil.BadRequest(c, "invalid organization ID")
	}

	db := database.GetDB()
	var org model.Organization
	if result := db.First(&org, uint(id)); result.Error != nil {
		return httputil.NotFound(c, "Organization")
	}

	var req organizationRequest
	if err := c.Bind(&req); err != nil {
		return httputil.BadRequest(c, "invalid request")
	}

	if req.Slug != "" {
		slug := strings.ToLower(req.Slug)
		if slug != org.Slug {
			var conflict model.Organization
			if result := db.Select("id").Where("slug = ?", slug).First(&conflict); result.Error == nil {
				return httputil.Conflict(c, "Organization slug already in use")
			}
			org.Slug = slug
		}
	}
	if req.Name != "" {
		org.Name = req.Name
	}
	if req.Address != nil {
		org.Address = req.Address
	}
	if req.Phone != nil {
		org.Phone = req.Phone
	}
	if req.Email != nil {
		org.Email = req.Email
	}
	if req.Website != nil {
		org.Website = req.Website
	}

	if result := db.Save(&org); result.Error != nil {
		log.Error("Failed to update organization", zap.Error(result.Error))
		return httputil.Internal(c, "organization update failed")
	}

	return httputil.OK(c, org, "Organization updated successfully")
}

// DeleteOrganization removes an organization. SUPER_ADMIN only; the
// center organization and organizations that still own users are
// refused. The logo blob is deleted along the way.
func DeleteOrganization(c echo.Context) error {
	log := logger.FromContext(c)
	identity, ok := requireIdentity(c)
	if !ok {
		return httputil.Unauthorized(c)
	}
	if !policy.CanManageOrganizations(identity) {
		return httputil.Forbidden(c, string(model.RoleSuperAdmin))
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return httputil.BadRequest(c, "invalid organization ID")
	}

	db := database.GetDB()
	var org model.Organization
	if result := db.First(&org, uint(id)); result.Error != nil {
		return httputil.NotFound(c, "Organization")
	}

	if org.IsCenter {
		return httputil.BadRequest(c, "Cannot delete the center organization")
	}

	var userCount int64
	db.Model(&model.User{}).Where("organization_id = ?", org.ID).Count(&userCount)
	if userCount > 0 {
		return httputil.BadRequest(c, "Cannot delete organization with active users. Please remove all users first.")
	}

	if org.Logo != nil && objectStore != nil {
		if err := objectStore.Delete(c.Request().Context(), *org.Logo); err != nil {
			log.Warn("Failed to delete organization logo blob", zap.String("key", *org.Logo), zap.Error(err))
		}
	}

	if result := db.Delete(&org); result.Error != nil {
		log.Error("Failed to delete organization", zap.Error(result.Error))
		return httputil.Internal(c, "organization deletion failed")
	}

	log.Info("Organization deleted", zap.Uint("id", org.ID), zap.String("slug", org.Slug))
	return httputil.OK(c, nil, "Organization deleted successfully")
}

// UploadOrganizationLogo replaces the organization's logo blob.
// SUPER_ADMIN only.
func UploadOrganizationLogo(c echo.Context) error {
	log := logger.FromContext(c)
	identity, ok := requireIdentity(c)
	if !ok {
		return httputil.Unauthorized(c)
	}
	if !policy.CanManageOrganizations(identity) {
		return httputil.Forbidden(c, string(model.RoleSuperAdmin))
	}
	if objectStore == nil {
		return httputil.Unavailable(c, "object storage is not configured")
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return httputil.BadRequest(c, "invalid organization ID")
	}

	db := database.GetDB()
	var org model.Organization
	if result := db.First(&org, uint(id)); result.Error != nil {
		return httputil.NotFound(c, "Organization")
	}

	file, err := c.FormFile("file")
	if err != nil {
		return httputil.BadRequest(c, "file is required")
	}
	src, err := file.Open()
	if err != nil {
		return httputil.BadRequest(c, "failed to read file")
	}
	defer src.Close()

	ctx := c.Request().Context()

	// Replace the previous logo blob, if any.
	if org.Logo != nil {
		if err := objectStore.Delete(ctx, *org.Logo); err != nil {
			log.Warn("Failed to delete previous logo blob", zap.String("key", *org.Logo), zap.Error(err))
		}
	}

	key := storage.GenerateKey("logos", org.Slug+"-"+file.Filename)
	contentType := file.Header.Get("Content-Type")
	if err := objectStore.Upload(ctx, key, src, file.Size, contentType); err != nil {
		log.Error("Failed to upload logo", zap.Error(err))
		return httputil.Internal(c, "logo upload failed")
	}

	if err := db.Model(&org).Update("logo", key).Error; err != nil {
		log.Error("Failed to persist logo key", zap.String("key", key), zap.Error(err))
		return httputil.Internal(c, "logo upload failed")
	}

	url, err := objectStore.PresignedURL(ctx, key, storage.DefaultPresignExpiry)
	if err != nil {
		log.Warn("Failed to presign logo", zap.Error(err))
	}
	return httputil.OK(c, echo.Map{"url": url}, "Logo uploaded successfully")
}

// presignLogo swaps an organization's stored logo key for a temporary
// download URL when storage is available.
func presignLogo(c echo.Context, org *model.Organization) {
	if org.Logo == nil || objectStore == nil {
		return
	}
	url, err := objectStore.PresignedURL(c.Request().Context(), *org.Logo, storage.DefaultPresignExpiry)
	if err != nil {
		logger.FromContext(c).Warn("Failed to presign logo", zap.Error(err))
		return
	}
	org.Logo = &url
}
