package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/JanSetu/JS-Backend/internal/utils"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	sessionTTL  = 7 * 24 * time.Hour
	maxAttempts = 3
)

// Handler carries the auth endpoints' dependencies.
type Handler struct {
	db        *gorm.DB
	sms       Sender
	otpExpiry time.Duration
	otpLength int
}

func NewHandler(db *gorm.DB, sms Sender, otpExpiry time.Duration, otpLength int) *Handler {
	if otpExpiry <= 0 {
		otpExpiry = 10 * time.Minute
	}
	return &Handler{db: db, sms: sms, otpExpiry: otpExpiry, otpLength: otpLength}
}

type signupRequest struct {
	MobileNumber string  `json:"mobile_number"`
	Name         string  `json:"name"`
	VillageName  *string `json:"village_name"`
}

// Signup registers a new citizen and sends them an OTP.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		http.Error(w, "Name is required", http.StatusBadRequest)
		return
	}

	number, err := NormalizePhone(req.MobileNumber)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var existing User
	if err := h.db.First(&existing, "mobile_number = ?", number).Error; err == nil {
		http.Error(w, "User with this mobile number already exists. Please login instead.", http.StatusConflict)
		return
	}

	user := User{
		Name:         req.Name,
		MobileNumber: number,
		Role:         RoleCitizen,
		VillageName:  req.VillageName,
		IsActive:     true,
	}
	if err := h.db.Create(&user).Error; err != nil {
		http.Error(w, "Failed to register user", http.StatusInternalServerError)
		return
	}

	if err := h.issueOTP(r, number); err != nil {
		http.Error(w, "Failed to send OTP", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message":            "OTP sent successfully to your mobile number",
		"mobile_number":      number,
		"expires_in_minutes": int(h.otpExpiry.Minutes()),
	})
}

type loginRequest struct {
	MobileNumber string `json:"mobile_number"`
}

// Login sends an OTP to an existing user.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	number, err := NormalizePhone(req.MobileNumber)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var user User
	if err := h.db.First(&user, "mobile_number = ?", number).Error; err != nil {
		http.Error(w, "User not found. Please signup first.", http.StatusNotFound)
		return
	}
	if !user.IsActive {
		http.Error(w, "Account is deactivated", http.StatusForbidden)
		return
	}

	if err := h.issueOTP(r, number); err != nil {
		http.Error(w, "Failed to send OTP", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message":            "OTP sent successfully to your mobile number",
		"mobile_number":      number,
		"expires_in_minutes": int(h.otpExpiry.Minutes()),
	})
}

func (h *Handler) issueOTP(r *http.Request, number string) error {
	code, err := GenerateOTP(h.otpLength)
	if err != nil {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	otp := OTP{
		MobileNumber: number,
		CodeHash:     string(hashed),
		ExpiresAt:    time.Now().Add(h.otpExpiry),
	}
	if err := h.db.Create(&otp).Error; err != nil {
		return err
	}

	body := fmt.Sprintf("Your JanSetu verification code is: %s\n\nThis code will expire in %d minutes.\n\nDo not share this code with anyone.",
		code, int(h.otpExpiry.Minutes()))
	if err := h.sms.Send(r.Context(), number, body); err != nil {
		log.Printf("Failed to send OTP SMS to %s: %v", number, err)
		return err
	}
	return nil
}

type verifyRequest struct {
	MobileNumber string `json:"mobile_number"`
	OTPCode      string `json:"otp_code"`
}

// VerifyOTP checks the code, burns the OTP row, and opens a session.
func (h *Handler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	number, err := NormalizePhone(req.MobileNumber)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var user User
	if err := h.db.First(&user, "mobile_number = ?", number).Error; err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	var otp OTP
	err = h.db.Where("mobile_number = ? AND used = ?", number, false).
		Order("created_at DESC").
		First(&otp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		http.Error(w, "No valid OTP found. Please request a new one.", http.StatusBadRequest)
		return
	}
	if err != nil {
		http.Error(w, "Failed to verify OTP", http.StatusInternalServerError)
		return
	}

	if time.Now().After(otp.ExpiresAt) {
		http.Error(w, "OTP has expired. Please request a new one.", http.StatusBadRequest)
		return
	}
	if otp.AttemptCount >= maxAttempts {
		http.Error(w, "Too many failed attempts. Please request a new OTP.", http.StatusTooManyRequests)
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(otp.CodeHash), []byte(req.OTPCode)) != nil {
		h.db.Model(&otp).Update("attempt_count", otp.AttemptCount+1)
		remaining := maxAttempts - otp.AttemptCount - 1
		http.Error(w, fmt.Sprintf("Invalid OTP. %d attempts remaining.", remaining), http.StatusBadRequest)
		return
	}

	if err := h.db.Model(&otp).Update("used", true).Error; err != nil {
		http.Error(w, "Failed to verify OTP", http.StatusInternalServerError)
		return
	}

	sessionID := uuid.NewString()
	session := Session{
		SessionID: sessionID,
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(sessionTTL),
	}

	// one live session per user
	h.db.Where("user_id = ?", user.ID).Delete(&Session{})
	if err := h.db.Create(&session).Error; err != nil {
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "session_id",
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  session.ExpiresAt,
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(user)
}

// Me returns the authenticated user.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var user User
	if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(user)
}

// Logout deletes the session and clears the cookie.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie("session_id")
	if err == nil {
		h.db.Where("session_id = ?", cookie.Value).Delete(&Session{})
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "session_id",
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "Logged out")
}
