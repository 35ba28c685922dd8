package auth

import (
	"github.com/JanSetu/JS-Backend/internal/utils"
	"gorm.io/gorm"
)

// SessionInfo implements middleware.SessionFetcher over the sessions and
// users tables.
type SessionInfo struct {
	DB *gorm.DB
}

func (si SessionInfo) FindSessionByID(id string) (utils.SessionData, error) {
	var session Session
	if err := si.DB.First(&session, "session_id = ?", id).Error; err != nil {
		return utils.SessionData{}, err
	}

	var user User
	if err := si.DB.First(&user, "id = ?", session.UserID).Error; err != nil {
		return utils.SessionData{}, err
	}

	return utils.SessionData{
		SessionID: session.SessionID,
		UserID:    session.UserID,
		Role:      user.Role,
		ExpiresAt: session.ExpiresAt,
	}, nil
}
