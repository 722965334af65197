package model

import (
	"gorm.io/gorm"
)

// RecordScope selects which soft-delete state a log query sees. Every
// read path passes one explicitly so archived rows can never leak into
// a view by accident.
type RecordScope int

const (
	// ScopeActive returns only rows that have not been archived.
	ScopeActive RecordScope = iota
	// ScopeArchived returns only archived rows. Reserved for SUPER_ADMIN.
	ScopeArchived
)

// Scoped applies the record scope to a financial log query. Gorm already
// hides soft-deleted rows by default; the archived scope lifts that and
// inverts the filter.
func Scoped(db *gorm.DB, scope RecordScope) *gorm.DB {
	if scope == ScopeArchived {
		return db.Unscoped().Where("deleted_at IS NOT NULL")
	}
	return db.Where("deleted_at IS NULL")
}
