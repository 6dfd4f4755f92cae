package scope

import "gorm.io/gorm"

func OrderByCreatedDesc(db *gorm.DB) *gorm.DB {
	return db.Order("created_at DESC")
}

func OrderByCreatedAsc(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC")
}

// Unread narrows notifications to the ones the user has not opened.
func Unread(db *gorm.DB) *gorm.DB {
	return db.Where("is_read = ?", false)
}
