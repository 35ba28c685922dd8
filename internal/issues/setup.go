package issues

import "gorm.io/gorm"

// Init migrates the issue tables.
func Init(db *gorm.DB) error {
	return db.AutoMigrate(&Issue{}, &IssuePhoto{})
}
