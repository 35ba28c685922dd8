package auth

import "time"

// Role values stored on users. Zone administration tooling checks for
// coordinator; the zones module binds only representatives.
const (
	RoleCitizen        = "citizen"
	RoleRepresentative = "representative"
	RoleCoordinator    = "coordinator"
)

type User struct {
	ID           int     `gorm:"primaryKey" json:"id"`
	Name         string  `gorm:"size:255" json:"name"`
	MobileNumber string  `gorm:"uniqueIndex;size:20" json:"mobile_number"`
	Role         string  `gorm:"size:50;default:'citizen'" json:"role"`
	VillageName  *string `gorm:"size:255" json:"village_name"`
	WardNumber   *string `gorm:"size:50" json:"ward_number"`
	IsActive     bool    `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
}

func (User) TableName() string { return "users" }

// OTP rows are single-use. The code itself is never stored, only its
// bcrypt hash.
type OTP struct {
	ID           int       `gorm:"primaryKey" json:"-"`
	MobileNumber string    `gorm:"index;size:20" json:"-"`
	CodeHash     string    `json:"-"`
	ExpiresAt    time.Time `gorm:"not null" json:"-"`
	Used         bool      `gorm:"default:false" json:"-"`
	AttemptCount int       `gorm:"default:0" json:"-"`
	CreatedAt    time.Time `json:"-"`
}

func (OTP) TableName() string { return "otps" }

type Session struct {
	SessionID string    `gorm:"primaryKey" json:"-"`
	UserID    int       `gorm:"not null;index" json:"-"`
	ExpiresAt time.Time `gorm:"not null" json:"-"`
}

func (Session) TableName() string { return "sessions" }
