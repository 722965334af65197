package handler

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"ledger-service/internal/httputil"
	"ledger-service/internal/model"
	"ledger-service/internal/policy"
	"ledger-service/pkg/database"
	"ledger-service/pkg/logger"
	"ledger-service/pkg/storage"
	"ledger-service/prometheus"
)

// scopeFromQuery resolves the requested record scope. Only SUPER_ADMIN
// may ask for archived rows; everyone else always gets the active view.
func scopeFromQuery(c echo.Context, identity policy.Identity) model.RecordScope {
	if c.QueryParam("status") == "ARCHIVED" && identity.IsGlobalAdmin() {
		return model.ScopeArchived
	}
	return model.ScopeActive
}

// ListLogs returns financial logs visible to the caller with search,
// type, date-range filters and sorting.
func ListLogs(c echo.Context) error {
	identity, ok := requireIdentity(c)
	if !ok {
		return httputil.Unauthorized(c)
	}

	page, limit, offset := httputil.ParsePagination(c)
	requested := parseOptionalUint(c.QueryParam("organization_id"))
	scope := policy.EffectiveOrganizationFilter(identity, requested)
	recordScope := scopeFromQuery(c, identity)

	query := model.Scoped(database.GetDB().Model(&model.FinancialLog{}), recordScope)
	if scope != nil {
		query = query.Where("organization_id = ?", *scope)
	}
	if search := c.QueryParam("search"); search != "" {
		query = query.Where("description ILIKE ?", "%"+search+"%")
	}
	if logType := c.QueryParam("type"); logType != "" {
		query = query.Where("type = ?", logType)
	}
	if raw := c.QueryParam("startDate"); raw != "" {
		if start, err := time.Parse("2006-01-02", raw); err == nil {
			query = query.Where("created_at >= ?", start)
		}
	}
	if raw := c.QueryParam("endDate"); raw != "" {
		if end, err := time.Parse("2006-01-02", raw); err == nil {
			// Inclusive end: everything before the next day.
			query = query.Where("created_at < ?", end.AddDate(0, 0, 1))
		}
	}

	orderBy := "created_at"
	if c.QueryParam("sortBy") == "totalAmount" {
		orderBy = "total_amount"
	}
	direction := "DESC"
	if c.QueryParam("sortOrder") == "asc" {
		direction = "ASC"
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return httputil.Internal(c, "failed to retrieve logs")
	}

	var logs []model.FinancialLog
	defer prometheus.TrackDBOperation("query")(time.Now())
	if err := query.Preload("User").Preload("Organization").
		Order(orderBy + " " + direction).Limit(limit).Offset(offset).Find(&logs).Error; err != nil {
		return httputil.Internal(c, "failed to retrieve logs")
	}

	return httputil.Paginated(c, logs, total, page, limit)
}

// GetLog returns one log with its items and attachments. Attachment
// storage keys are swapped for presigned download links.
func GetLog(c echo.Context) error {
	identity, ok := requireIdentity(c)
	if !ok {
		return httputil.Unauthorized(c)
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return httputil.BadRequest(c, "invalid log ID")
	}

	recordScope := scopeFromQuery(c, identity)
	var entry model.FinancialLog
	result := model.Scoped(database.GetDB(), recordScope).
		Preload("Items").Preload("Attachments").
		Preload("User").Preload("Organization").
		First(&entry, uint(id))
	if result.Error != nil {
		return httputil.NotFound(c, "Log")
	}
	if !policy.CanAccessOrganization(identity, entry.OrganizationID) {
		return httputil.Forbidden(c, "")
	}

	attachments := make([]echo.Map, 0, len(entry.Attachments))
	for _, a := range entry.Attachments {
		item := echo.Map{
			"id":          a.ID,
			"file_name":   a.FileName,
			"mime_type":   a.MimeType,
			"uploaded_at": a.UploadedAt,
		}
		if objectStore != nil {
			if url, err := objectStore.PresignedURL(c.Request().Context(), a.StorageKey, 0); err == nil {
				item["url"] = url
			}
		}
		attachments = append(attachments, item)
	}

	return httputil.OK(c, echo.Map{
		"log":         entry,
		"attachments": attachments,
	}, "")
}

type logItemRequest struct {
	ItemName  string  `json:"item_name"`
	Quantity  float64 `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

type createLogRequest struct {
	Type            string           `json:"type"`
	Description     string           `json:"description"`
	TotalAmount     float64          `json:"total_amount"`
	TransactionDate *time.Time       `json:"transaction_date"`
	OrganizationID  *uint            `json:"organization_id"`
	Items           []logItemRequest `json:"items"`
}

// buildItems expands the item requests into rows, defaulting quantity
// to 1 and deriving each subtotal.
func buildItems(reqs []logItemRequest) []model.LogItem {
	items := make([]model.LogItem, 0, len(reqs))
	for _, r := range reqs {
		qty := r.Quantity
		if qty <= 0 {
			qty = 1
		}
		items = append(items, model.LogItem{
			ItemName:  r.ItemName,
			Quantity:  qty,
			UnitPrice: r.UnitPrice,
			SubTotal:  qty * r.UnitPrice,
		})
	}
	return items
}

// CreateLog records a new income or expense entry with optional line
// items, atomically.
func CreateLog(c echo.Context) error {
	log := logger.FromContext(c)
	identity, ok := requireIdentity(c)
	if !ok {
		return httputil.Unauthorized(c)
	}

	var req createLogRequest
	if err := c.Bind(&req); err != nil {
		return httputil.BadRequest(c, "invalid request")
	}

	logType := model.LogType(req.Type)
	if !logType.Valid() {
		return httputil.BadRequest(c, "type must be INCOME or EXPENSE")
	}
	if req.Description == "" {
		return httputil.BadRequest(c, "description is required")
	}
	if req.TotalAmount < 0 {
		return httputil.BadRequest(c, "total amount must not be negative")
	}

	entry := model.FinancialLog{
		OrganizationID:  policy.TargetOrganizationForNewLog(identity, req.OrganizationID),
		UserID:          identity.UserID,
		Type:            logType,
		Description:     req.Description,
		TotalAmount:     req.TotalAmount,
		TransactionDate: req.TransactionDate,
	}
	items := buildItems(req.Items)
	if err := entry.ValidateTotal(items); err != nil {
		return httputil.BadRequest(c, err.Error())
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	err := database.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].LogID = entry.ID
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Error("Failed to create log", zap.Error(err))
		return httputil.Internal(c, "log creation failed")
	}
	entry.Items = items

	prometheus.LogOperationCounter.WithLabelValues("create").Inc()
	log.Info("Financial log created",
		zap.Uint("id", entry.ID),
		zap.String("type", string(entry.Type)),
		zap.Float64("total", entry.TotalAmount))
	return httputil.Created(c, entry, "Log created successfully")
}

type updateLogRequest struct {
	Type            *string          `json:"type"`
	Description     *string          `json:"description"`
	TotalAmount     *float64         `json:"total_amount"`
	TransactionDate *time.Time       `json:"transaction_date"`
	Items           []logItemRequest `json:"items"`
}

// UpdateLog changes a log's fields and, when items are supplied,
// replaces the item set. STAFF may only touch their own recent logs.
func UpdateLog(c echo.Context) error {
	log := logger.FromContext(c)
	identity, ok := requireIdentity(c)
	if !ok {
		return httputil.Unauthorized(c)
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return httputil.BadRequest(c, "invalid log ID")
	}

	db := database.GetDB()
	var entry model.FinancialLog
	if result := model.Scoped(db, model.ScopeActive).First(&entry, uint(id)); result.Error != nil {
		return httputil.NotFound(c, "Log")
	}
	if !policy.CanMutateLog(identity, entry.UserID, entry.OrganizationID, entry.CreatedAt, time.Now()) {
		return httputil.Forbidden(c, "")
	}

	var req updateLogRequest
	if err := c.Bind(&req); err != nil {
		return httputil.BadRequest(c, "invalid request")
	}

	if req.Type != nil {
		logType := model.LogType(*req.Type)
		if !logType.Valid() {
			return httputil.BadRequest(c, "type must be INCOME or EXPENSE")
		}
		entry.Type = logType
	}
	if req.Description != nil {
		entry.Description = *req.Description
	}
	if req.TotalAmount != nil {
		if *req.TotalAmount < 0 {
			return httputil.BadRequest(c, "total amount must not be negative")
		}
		entry.TotalAmount = *req.TotalAmount
	}
	if req.TransactionDate != nil {
		entry.TransactionDate = req.TransactionDate
	}

	var items []model.LogItem
	replaceItems := req.Items != nil
	if replaceItems {
		items = buildItems(req.Items)
	} else {
		if err := db.Where("log_id = ?", entry.ID).Find(&items).Error; err != nil {
			return httputil.Internal(c, "log update failed")
		}
	}
	if err := entry.ValidateTotal(items); err != nil {
		return httputil.BadRequest(c, err.Error())
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&entry).Error; err != nil {
			return err
		}
		if replaceItems {
			if err := tx.Where("log_id = ?", entry.ID).Delete(&model.LogItem{}).Error; err != nil {
				return err
			}
			for i := range items {
				items[i].LogID = entry.ID
			}
			if len(items) > 0 {
				if err := tx.Create(&items).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		log.Error("Failed to update log", zap.Error(err))
		return httputil.Internal(c, "log update failed")
	}
	entry.Items = items

	prometheus.LogOperationCounter.WithLabelValues("update").Inc()
	return httputil.OK(c, entry, "Log updated successfully")
}

// DeleteLog archives a log (soft delete). The row and its attachments
// survive for a possible restore.
func DeleteLog(c echo.Context) error {
	log := logger.FromContext(c)
	identity, ok := requireIdentity(c)
	if !ok {
		return httputil.Unauthorized(c)
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return httputil.BadRequest(c, "invalid log ID")
	}

	db := database.GetDB()
	var entry model.FinancialLog
	if result := model.Scoped(db, model.ScopeActive).First(&entry, uint(id)); result.Error != nil {
		return httputil.NotFound(c, "Log")
	}
	if !policy.CanMutateLog(identity, entry.UserID, entry.OrganizationID, entry.CreatedAt, time.Now()) {
		return httputil.Forbidden(c, "")
	}

	if result := db.Delete(&entry); result.Error != nil {
		log.Error("Failed to archive log", zap.Error(result.Error))
		return httputil.Internal(c, "log deletion failed")
	}

	prometheus.LogOperationCounter.WithLabelValues("archive").Inc()
	log.Info("Financial log archived", zap.Uint("id", entry.ID))
	return httputil.OK(c, nil, "Log archived successfully")
}

// RestoreLog un-archives a log. SUPER_ADMIN only.
func RestoreLog(c echo.Context) error {
	log := logger.FromContext(c)
	identity, ok := requireIdentity(c)
	if !ok {
		return httputil.Unauthorized(c)
	}
	if !policy.CanRestoreLog(identity) {
		return httputil.Forbidden(c, string(model.RoleSuperAdmin))
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return httputil.BadRequest(c, "invalid log ID")
	}

	db := database.GetDB()
	var entry model.FinancialLog
	if result := model.Scoped(db, model.ScopeArchived).First(&entry, uint(id)); result.Error != nil {
		return httputil.NotFound(c, "Archived log")
	}

	if err := db.Unscoped().Model(&entry).Update("deleted_at", nil).Error; err != nil {
		log.Error("Failed to restore log", zap.Error(err))
		return httputil.Internal(c, "log restore failed")
	}

	prometheus.LogOperationCounter.WithLabelValues("restore").Inc()
	log.Info("Financial log restored", zap.Uint("id", entry.ID))
	return httputil.OK(c, nil, "Log restored successfully")
}

// UploadAttachment stores a receipt file for a log and records its
// metadata. The blob is written first; if the metadata row then fails
// the orphaned blob is logged for cleanup.
func UploadAttachment(c echo.Context) error {
	log := logger.FromContext(c)
	identity, ok := requireIdentity(c)
	if !ok {
		return httputil.Unauthorized(c)
	}
	if objectStore == nil {
		return httputil.Unavailable(c, "object storage is not configured")
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return httputil.BadRequest(c, "invalid log ID")
	}

	db := database.GetDB()
	var entry model.FinancialLog
	if result := model.Scoped(db, model.ScopeActive).Preload("Organization").First(&entry, uint(id)); result.Error != nil {
		return httputil.NotFound(c, "Log")
	}
	if !policy.CanMutateLog(identity, entry.UserID, entry.OrganizationID, entry.CreatedAt, time.Now()) {
		return httputil.Forbidden(c, "")
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

	slug := "unassigned"
	if entry.Organization != nil {
		slug = entry.Organization.Slug
	}
	key := storage.GenerateKey(slug, file.Filename)
	contentType := file.Header.Get("Content-Type")

	ctx := c.Request().Context()
	if err := objectStore.Upload(ctx, key, src, file.Size, contentType); err != nil {
		log.Error("Failed to upload attachment blob", zap.Error(err))
		return httputil.Internal(c, "attachment upload failed")
	}

	attachment := model.Attachment{
		LogID:      entry.ID,
		StorageKey: key,
		FileName:   file.Filename,
		MimeType:   contentType,
	}
	if err := db.Create(&attachment).Error; err != nil {
		// The blob exists but has no row pointing at it.
		log.Error("Attachment row failed after blob upload, blob orphaned",
			zap.String("key", key), zap.Error(err))
		prometheus.AttachmentOperationCounter.WithLabelValues("orphaned_blob").Inc()
		return httputil.Internal(c, "attachment upload failed")
	}

	prometheus.AttachmentOperationCounter.WithLabelValues("upload").Inc()
	return httputil.Created(c, attachment, "Attachment uploaded successfully")
}

// DeleteAttachment removes a receipt: blob first, then metadata row.
func DeleteAttachment(c echo.Context) error {
	log := logger.FromContext(c)
	identity, ok := requireIdentity(c)
	if !ok {
		return httputil.Unauthorized(c)
	}
	if objectStore == nil {
		return httputil.Unavailable(c, "object storage is not configured")
	}

	logID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return httputil.BadRequest(c, "invalid log ID")
	}
	attachmentID, err := strconv.ParseUint(c.Param("attachmentId"), 10, 32)
	if err != nil {
		return httputil.BadRequest(c, "invalid attachment ID")
	}

	db := database.GetDB()
	var entry model.FinancialLog
	if result := model.Scoped(db, model.ScopeActive).First(&entry, uint(logID)); result.Error != nil {
		return httputil.NotFound(c, "Log")
	}
	if !policy.CanMutateLog(identity, entry.UserID, entry.OrganizationID, entry.CreatedAt, time.Now()) {
		return httputil.Forbidden(c, "")
	}

	var attachment model.Attachment
	if result := db.First(&attachment, uint(attachmentID)); result.Error != nil || attachment.LogID != entry.ID {
		return httputil.NotFound(c, "Attachment")
	}

	if err := objectStore.Delete(c.Request().Context(), attachment.StorageKey); err != nil {
		log.Error("Failed to delete attachment blob", zap.String("key", attachment.StorageKey), zap.Error(err))
		return httputil.Internal(c, "attachment deletion failed")
	}
	if err := db.Delete(&attachment).Error; err != nil {
		log.Error("Failed to delete attachment row", zap.Error(err))
		return httputil.Internal(c, "attachment deletion failed")
	}

	prometheus.AttachmentOperationCounter.WithLabelValues("delete").Inc()
	return httputil.OK(c, nil, "Attachment deleted successfully")
}
