package fieldops

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/JanSetu/JS-Backend/internal/auth"
	"github.com/JanSetu/JS-Backend/internal/geo"
	"github.com/JanSetu/JS-Backend/internal/issues"
	"github.com/JanSetu/JS-Backend/internal/utils"
	"github.com/JanSetu/JS-Backend/internal/zones"
	"github.com/go-chi/chi/v5"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Handler carries the coordinator and representative endpoints. This is
// the operational side of the platform: dashboards, manual assignment and
// the representative's issue workflow.
type Handler struct {
	db *gorm.DB
}

func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// openStatuses are everything short of resolved; the dashboard's backlog
// view counts these.
var openStatuses = []string{
	issues.StatusReported,
	issues.StatusAssigned,
	issues.StatusAcknowledged,
	issues.StatusInProgress,
}

type statusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

type typeCount struct {
	IssueType string `json:"issue_type"`
	Count     int64  `json:"count"`
}

type dashboardResponse struct {
	TotalIssues     int64         `json:"total_issues"`
	OpenIssues      int64         `json:"open_issues"`
	Unassigned      int64         `json:"unassigned"`
	Representatives int64         `json:"representatives"`
	ByStatus        []statusCount `json:"by_status"`
	ByType          []typeCount   `json:"by_type"`
}

// Dashboard returns the coordinator's aggregate counters.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	db := h.db.WithContext(r.Context())
	var resp dashboardResponse

	if err := db.Model(&issues.Issue{}).Count(&resp.TotalIssues).Error; err != nil {
		http.Error(w, "Failed to count issues: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if err := db.Model(&issues.Issue{}).
		Where("assigned_representative_id IS NULL").
		Count(&resp.Unassigned).Error; err != nil {
		http.Error(w, "Failed to count unassigned issues: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if err := db.Model(&auth.User{}).
		Where("role = ? AND is_active = ?", auth.RoleRepresentative, true).
		Count(&resp.Representatives).Error; err != nil {
		http.Error(w, "Failed to count representatives: "+err.Error(), http.StatusInternalServerError)
		return
	}

	if err := db.Raw(`
		SELECT status, COUNT(*) AS count
		FROM issues
		WHERE status = ANY(?)
		GROUP BY status
		ORDER BY status
	`, pq.Array(openStatuses)).Scan(&resp.ByStatus).Error; err != nil {
		http.Error(w, "Failed to count by status: "+err.Error(), http.StatusInternalServerError)
		return
	}
	for _, sc := range resp.ByStatus {
		resp.OpenIssues += sc.Count
	}

	if err := db.Raw(`
		SELECT issue_type, COUNT(*) AS count
		FROM issues
		GROUP BY issue_type
		ORDER BY issue_type
	`).Scan(&resp.ByType).Error; err != nil {
		http.Error(w, "Failed to count by type: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// ListRepresentatives returns all representative accounts with their zone,
// if one is mapped to them.
func (h *Handler) ListRepresentatives(w http.ResponseWriter, r *http.Request) {
	var reps []auth.User
	if err := h.db.WithContext(r.Context()).
		Where("role = ?", auth.RoleRepresentative).
		Order("id ASC").
		Find(&reps).Error; err != nil {
		http.Error(w, "Failed to fetch representatives: "+err.Error(), http.StatusInternalServerError)
		return
	}

	type repWithZone struct {
		auth.User
		Zone *zones.Zone `json:"zone,omitempty"`
	}
	out := make([]repWithZone, 0, len(reps))
	for _, rep := range reps {
		item := repWithZone{User: rep}
		var zone zones.Zone
		err := h.db.WithContext(r.Context()).
			Where("representative_id = ? AND is_active = ?", rep.ID, true).
			First(&zone).Error
		if err == nil {
			item.Zone = &zone
		}
		out = append(out, item)
	}
	writeJSON(w, http.StatusOK, out)
}

type createRepresentativeRequest struct {
	Name         string  `json:"name"`
	MobileNumber string  `json:"mobile_number"`
	VillageName  *string `json:"village_name"`
	WardNumber   *string `json:"ward_number"`
}

// CreateRepresentative registers a representative account directly,
// bypassing the OTP signup flow.
func (h *Handler) CreateRepresentative(w http.ResponseWriter, r *http.Request) {
	var req createRepresentativeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		http.Error(w, "Name is required", http.StatusBadRequest)
		return
	}
	number, err := auth.NormalizePhone(req.MobileNumber)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var existing auth.User
	if err := h.db.First(&existing, "mobile_number = ?", number).Error; err == nil {
		http.Error(w, "A user with this mobile number already exists", http.StatusConflict)
		return
	}

	rep := auth.User{
		Name:         req.Name,
		MobileNumber: number,
		Role:         auth.RoleRepresentative,
		VillageName:  req.VillageName,
		WardNumber:   req.WardNumber,
		IsActive:     true,
	}
	if err := h.db.WithContext(r.Context()).Create(&rep).Error; err != nil {
		http.Error(w, "Failed to create representative", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, rep)
}

type roleUpdateRequest struct {
	Role     string `json:"role"`
	IsActive *bool  `json:"is_active"`
}

// UpdateUser changes a user's role or active flag.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.Atoi(chi.URLParam(r, "user_id"))
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	var req roleUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var user auth.User
	if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	updates := map[string]interface{}{}
	if req.Role != "" {
		switch req.Role {
		case auth.RoleCitizen, auth.RoleRepresentative, auth.RoleCoordinator:
			updates["role"] = req.Role
		default:
			http.Error(w, "Unknown role: "+req.Role, http.StatusBadRequest)
			return
		}
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if len(updates) == 0 {
		http.Error(w, "Nothing to update", http.StatusBadRequest)
		return
	}

	if err := h.db.WithContext(r.Context()).Model(&user).Updates(updates).Error; err != nil {
		http.Error(w, "Failed to update user", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type assignRequest struct {
	RepresentativeID int     `json:"representative_id"`
	AssignmentNotes  *string `json:"assignment_notes"`
}

// AssignIssue hands an issue to a representative by hand. The audit row
// records the manual method and the distance from the representative's
// zone centroid, which is how manual picks stay comparable with automatic
// ones.
func (h *Handler) AssignIssue(w http.ResponseWriter, r *http.Request) {
	issueID, err := strconv.Atoi(chi.URLParam(r, "issue_id"))
	if err != nil {
		http.Error(w, "Invalid issue ID", http.StatusBadRequest)
		return
	}

	var req assignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var issue issues.Issue
	if err := h.db.First(&issue, "id = ?", issueID).Error; err != nil {
		http.Error(w, "Issue not found", http.StatusNotFound)
		return
	}
	if issue.AssignedRepresentativeID != nil {
		http.Error(w, "Issue is already assigned", http.StatusConflict)
		return
	}

	var rep auth.User
	if err := h.db.First(&rep, "id = ?", req.RepresentativeID).Error; err != nil {
		http.Error(w, "Representative not found", http.StatusNotFound)
		return
	}
	if rep.Role != auth.RoleRepresentative || !rep.IsActive {
		http.Error(w, "User is not an active representative", http.StatusUnprocessableEntity)
		return
	}

	var zone zones.Zone
	if err := h.db.Where("representative_id = ? AND is_active = ?", rep.ID, true).First(&zone).Error; err != nil {
		http.Error(w, "Representative has no active zone", http.StatusUnprocessableEntity)
		return
	}

	distance := geo.Distance(issue.Latitude, issue.Longitude, zone.CentroidLatitude, zone.CentroidLongitude, geo.Meters)

	err = h.db.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		assignment := zones.IssueAssignment{
			IssueID:              issue.ID,
			ZoneID:               zone.ID,
			DistanceFromCentroid: &distance,
			AssignmentMethod:     zones.MethodManual,
		}
		if err := tx.Create(&assignment).Error; err != nil {
			return fmt.Errorf("recording assignment: %w", err)
		}

		updates := map[string]interface{}{
			"assigned_representative_id": rep.ID,
			"status":                     issues.StatusAssigned,
			"ward_name":                  zone.Name,
		}
		if req.AssignmentNotes != nil {
			updates["assignment_notes"] = *req.AssignmentNotes
		}
		if err := tx.Model(&issue).Updates(updates).Error; err != nil {
			return fmt.Errorf("updating issue: %w", err)
		}
		return tx.Model(&zones.Zone{}).
			Where("id = ?", zone.ID).
			Update("issue_count", gorm.Expr("issue_count + 1")).Error
	})
	if err != nil {
		log.Printf("Manual assignment of issue %d failed: %v", issueID, err)
		http.Error(w, "Failed to assign issue", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, issue)
}

// MyIssues lists the issues assigned to the calling representative.
func (h *Handler) MyIssues(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	query := h.db.WithContext(r.Context()).
		Where("assigned_representative_id = ?", userID).
		Order("created_at DESC")
	if s := r.URL.Query().Get("status"); s != "" {
		if !issues.ValidStatus(s) {
			http.Error(w, "Invalid status filter", http.StatusBadRequest)
			return
		}
		query = query.Where("status = ?", s)
	}

	var list []issues.Issue
	if err := query.Find(&list).Error; err != nil {
		http.Error(w, "Failed to fetch issues: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// transitions maps each status to the statuses a representative may move
// it to.
var transitions = map[string][]string{
	issues.StatusAssigned:     {issues.StatusAcknowledged},
	issues.StatusAcknowledged: {issues.StatusInProgress},
	issues.StatusInProgress:   {issues.StatusResolved},
}

func transitionAllowed(from, to string) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

type statusUpdateRequest struct {
	Status        string  `json:"status"`
	ProgressNotes *string `json:"progress_notes"`
}

// UpdateIssueStatus walks an issue through the representative workflow:
// assigned -> acknowledged -> in_progress -> resolved. Only the assigned
// representative may move it.
func (h *Handler) UpdateIssueStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	issueID, err := strconv.Atoi(chi.URLParam(r, "issue_id"))
	if err != nil {
		http.Error(w, "Invalid issue ID", http.StatusBadRequest)
		return
	}

	var req statusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if !issues.ValidStatus(req.Status) {
		http.Error(w, "Unknown status: "+req.Status, http.StatusBadRequest)
		return
	}

	var issue issues.Issue
	if err := h.db.First(&issue, "id = ?", issueID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "Issue not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to fetch issue", http.StatusInternalServerError)
		return
	}
	if issue.AssignedRepresentativeID == nil || *issue.AssignedRepresentativeID != userID {
		http.Error(w, "Issue is not assigned to you", http.StatusForbidden)
		return
	}
	if !transitionAllowed(issue.Status, req.Status) {
		http.Error(w, fmt.Sprintf("Cannot move issue from %s to %s", issue.Status, req.Status), http.StatusUnprocessableEntity)
		return
	}

	updates := map[string]interface{}{"status": req.Status}
	if req.ProgressNotes != nil {
		updates["progress_notes"] = *req.ProgressNotes
	}
	if err := h.db.WithContext(r.Context()).Model(&issue).Updates(updates).Error; err != nil {
		http.Error(w, "Failed to update issue", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, issue)
}
