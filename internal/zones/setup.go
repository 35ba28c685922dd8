package zones

import "gorm.io/gorm"

// Init migrates the tables this module owns. The users and issues tables
// belong to the auth and issues modules.
func Init(db *gorm.DB) error {
	return db.AutoMigrate(&Zone{}, &ClusteringRun{}, &IssueAssignment{})
}
