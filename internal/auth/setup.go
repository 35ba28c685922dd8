package auth

import "gorm.io/gorm"

// Init migrates the auth-owned tables.
func Init(db *gorm.DB) error {
	return db.AutoMigrate(&User{}, &OTP{}, &Session{})
}
