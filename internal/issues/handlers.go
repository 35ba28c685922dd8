package issues

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/JanSetu/JS-Backend/internal/utils"
	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"
)

const (
	maxPhotosPerIssue = 3
	maxPhotoBytes     = 5 << 20 // 5 MB
	photoURLExpiry    = time.Hour
)

var allowedImageTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/webp": {},
}

// PhotoStore is the slice of the storage layer this module needs. It may
// be nil; photo upload is then rejected and photo URLs omitted.
type PhotoStore interface {
	Upload(ctx context.Context, filename, contentType string, r io.Reader, size int64) (string, error)
	PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

type Handler struct {
	db     *gorm.DB
	photos PhotoStore
}

func NewHandler(db *gorm.DB, photos PhotoStore) *Handler {
	return &Handler{db: db, photos: photos}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type issueResponse struct {
	Issue
	PhotoURLs []string `json:"photo_urls,omitempty"`
}

func (h *Handler) withPhotoURLs(ctx context.Context, issue Issue) issueResponse {
	resp := issueResponse{Issue: issue}
	if h.photos == nil {
		return resp
	}
	for _, p := range issue.Photos {
		u, err := h.photos.PresignedURL(ctx, p.ObjectKey, photoURLExpiry)
		if err != nil {
			log.Printf("Failed to presign photo %d: %v", p.ID, err)
			continue
		}
		resp.PhotoURLs = append(resp.PhotoURLs, u)
	}
	return resp
}

// CreateIssue accepts a multipart report with up to 3 photos. The issue
// row is committed before photo upload; a failed upload loses the photo,
// not the report.
func (h *Handler) CreateIssue(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(maxPhotosPerIssue * maxPhotoBytes); err != nil {
		http.Error(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}

	issueType := r.FormValue("issue_type")
	if !ValidType(issueType) {
		http.Error(w, "Invalid issue_type: must be water, electricity, road or garbage", http.StatusBadRequest)
		return
	}

	description := r.FormValue("description")
	if len(description) < 10 || len(description) > 2000 {
		http.Error(w, "Description must be between 10 and 2000 characters", http.StatusBadRequest)
		return
	}

	lat, err1 := strconv.ParseFloat(r.FormValue("latitude"), 64)
	lon, err2 := strconv.ParseFloat(r.FormValue("longitude"), 64)
	if err1 != nil || err2 != nil || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		http.Error(w, "Valid latitude and longitude are required", http.StatusBadRequest)
		return
	}

	issue := Issue{
		IssueType:   issueType,
		Description: description,
		Latitude:    lat,
		Longitude:   lon,
		Status:      StatusReported,
		UserID:      &userID,
	}
	if s := r.FormValue("ward_id"); s != "" {
		if wardID, err := strconv.Atoi(s); err == nil {
			issue.WardID = &wardID
		}
	}
	if s := r.FormValue("ward_name"); s != "" {
		issue.WardName = &s
	}

	files := r.MultipartForm.File["photos"]
	if len(files) > maxPhotosPerIssue {
		http.Error(w, fmt.Sprintf("Maximum %d photos allowed", maxPhotosPerIssue), http.StatusBadRequest)
		return
	}
	if len(files) > 0 && h.photos == nil {
		http.Error(w, "Photo storage is not configured", http.StatusServiceUnavailable)
		return
	}
	for _, fh := range files {
		contentType := fh.Header.Get("Content-Type")
		if _, ok := allowedImageTypes[contentType]; !ok {
			http.Error(w, "Invalid file type: "+contentType, http.StatusBadRequest)
			return
		}
		if fh.Size > maxPhotoBytes {
			http.Error(w, fmt.Sprintf("File %s exceeds maximum size of %dMB", fh.Filename, maxPhotoBytes>>20), http.StatusBadRequest)
			return
		}
	}

	if err := h.db.WithContext(r.Context()).Create(&issue).Error; err != nil {
		http.Error(w, "Failed to create issue", http.StatusInternalServerError)
		return
	}

	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			log.Printf("Failed to open upload %s: %v", fh.Filename, err)
			continue
		}
		key, err := h.photos.Upload(r.Context(), fh.Filename, fh.Header.Get("Content-Type"), f, fh.Size)
		f.Close()
		if err != nil {
			log.Printf("Failed to upload photo %s for issue %d: %v", fh.Filename, issue.ID, err)
			continue
		}
		photo := IssuePhoto{
			IssueID:     issue.ID,
			ObjectKey:   key,
			Filename:    fh.Filename,
			FileSize:    fh.Size,
			ContentType: fh.Header.Get("Content-Type"),
		}
		if err := h.db.Create(&photo).Error; err != nil {
			log.Printf("Failed to record photo for issue %d: %v", issue.ID, err)
			continue
		}
		issue.Photos = append(issue.Photos, photo)
	}

	writeJSON(w, http.StatusCreated, h.withPhotoURLs(r.Context(), issue))
}

// ListIssues returns issues, newest first, filtered by ?type= and
// ?status=, paginated with ?page= and ?page_size=.
func (h *Handler) ListIssues(w http.ResponseWriter, r *http.Request) {
	h.listIssues(w, r, nil)
}

// MyIssues is ListIssues scoped to the authenticated reporter.
func (h *Handler) MyIssues(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	h.listIssues(w, r, &userID)
}

func (h *Handler) listIssues(w http.ResponseWriter, r *http.Request, userID *int) {
	query := h.db.WithContext(r.Context()).Model(&Issue{}).Preload("Photos").Order("created_at DESC")

	if t := r.URL.Query().Get("type"); t != "" {
		if !ValidType(t) {
			http.Error(w, "Invalid type filter", http.StatusBadRequest)
			return
		}
		query = query.Where("issue_type = ?", t)
	}
	if s := r.URL.Query().Get("status"); s != "" {
		if !ValidStatus(s) {
			http.Error(w, "Invalid status filter", http.StatusBadRequest)
			return
		}
		query = query.Where("status = ?", s)
	}
	if userID != nil {
		query = query.Where("user_id = ?", *userID)
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		http.Error(w, "Failed to count issues: "+err.Error(), http.StatusInternalServerError)
		return
	}

	var list []Issue
	if err := query.Offset((page - 1) * pageSize).Limit(pageSize).Find(&list).Error; err != nil {
		http.Error(w, "Failed to fetch issues: "+err.Error(), http.StatusInternalServerError)
		return
	}

	items := make([]issueResponse, 0, len(list))
	for _, issue := range list {
		items = append(items, h.withPhotoURLs(r.Context(), issue))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"items":     items,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

type mapPin struct {
	ID        int     `json:"id"`
	IssueType string  `json:"issue_type"`
	Status    string  `json:"status"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// MapView returns the lightweight pin list for map rendering.
func (h *Handler) MapView(w http.ResponseWriter, r *http.Request) {
	query := h.db.WithContext(r.Context()).Model(&Issue{})
	if s := r.URL.Query().Get("status"); s != "" {
		if !ValidStatus(s) {
			http.Error(w, "Invalid status filter", http.StatusBadRequest)
			return
		}
		query = query.Where("status = ?", s)
	}

	var pins []mapPin
	if err := query.Select("id", "issue_type", "status", "latitude", "longitude").Find(&pins).Error; err != nil {
		http.Error(w, "Failed to fetch map data: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, pins)
}

// GetIssue returns one issue with presigned photo URLs.
func (h *Handler) GetIssue(w http.ResponseWriter, r *http.Request) {
	issueID, err := strconv.Atoi(chi.URLParam(r, "issue_id"))
	if err != nil {
		http.Error(w, "Invalid issue ID", http.StatusBadRequest)
		return
	}

	var issue Issue
	if err := h.db.WithContext(r.Context()).Preload("Photos").First(&issue, "id = ?", issueID).Error; err != nil {
		http.Error(w, "Issue not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, h.withPhotoURLs(r.Context(), issue))
}
