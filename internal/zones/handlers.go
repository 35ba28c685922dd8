package zones

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/JanSetu/JS-Backend/internal/cluster"
	"github.com/JanSetu/JS-Backend/internal/config"
	"github.com/JanSetu/JS-Backend/internal/geocoding"
	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"
)

// Handler carries the zone endpoints' dependencies. The geocoder may be
// nil; the geocoding endpoints return 503 in that case.
type Handler struct {
	db           *gorm.DB
	registry     *Registry
	resolver     *Resolver
	orchestrator *Orchestrator
	geocoder     *geocoding.Client
	defaults     config.Clustering
}

func NewHandler(db *gorm.DB, registry *Registry, resolver *Resolver, orchestrator *Orchestrator, geocoder *geocoding.Client, defaults config.Clustering) *Handler {
	return &Handler{
		db:           db,
		registry:     registry,
		resolver:     resolver,
		orchestrator: orchestrator,
		geocoder:     geocoder,
		defaults:     defaults,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// ListZones returns zones, active only by default. ?include_inactive=true
// widens to every generation; ?mapped_only=true narrows to zones with a
// representative.
func (h *Handler) ListZones(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("include_inactive") != "true"
	mappedOnly := r.URL.Query().Get("mapped_only") == "true"

	list, err := h.registry.ListZones(r.Context(), activeOnly, mappedOnly)
	if err != nil {
		http.Error(w, "Failed to fetch zones: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// GetZone returns a single zone by ID.
func (h *Handler) GetZone(w http.ResponseWriter, r *http.Request) {
	zoneID, err := strconv.Atoi(chi.URLParam(r, "zone_id"))
	if err != nil {
		http.Error(w, "Invalid zone ID", http.StatusBadRequest)
		return
	}

	zone, err := h.registry.GetZone(r.Context(), zoneID)
	if errors.Is(err, ErrZoneNotFound) {
		http.Error(w, "Zone not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Failed to fetch zone: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, zone)
}

type findRepresentativeResponse struct {
	Found          bool            `json:"found"`
	Zone           *Zone           `json:"zone,omitempty"`
	Representative *Representative `json:"representative,omitempty"`
	DistanceMeters *float64        `json:"distance_meters,omitempty"`
}

// FindRepresentative resolves the nearest mapped zone for a coordinate.
// found=false is a normal answer, not an error.
func (h *Handler) FindRepresentative(w http.ResponseWriter, r *http.Request) {
	lat, err1 := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lon, err2 := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if err1 != nil || err2 != nil {
		http.Error(w, "lat and lon query parameters are required", http.StatusBadRequest)
		return
	}

	maxMeters := h.defaults.MaxAssignDistanceMeters
	if s := r.URL.Query().Get("max_distance"); s != "" {
		maxMeters, err1 = strconv.ParseFloat(s, 64)
		if err1 != nil {
			http.Error(w, "Invalid max_distance", http.StatusBadRequest)
			return
		}
	}

	zone, err := h.resolver.FindNearest(r.Context(), lat, lon, maxMeters)
	if err != nil {
		http.Error(w, "Failed to resolve zone: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if zone == nil {
		writeJSON(w, http.StatusOK, findRepresentativeResponse{Found: false})
		return
	}

	resp := findRepresentativeResponse{Found: true, Zone: zone}
	if zone.RepresentativeID != nil {
		var rep Representative
		if err := h.db.WithContext(r.Context()).First(&rep, "id = ?", *zone.RepresentativeID).Error; err == nil {
			resp.Representative = &rep
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

type runClusteringRequest struct {
	Algorithm      string   `json:"algorithm"`
	EpsMeters      *float64 `json:"eps_meters"`
	MinSamples     *int     `json:"min_samples"`
	MinClusterSize *int     `json:"min_cluster_size"`
}

// RunClustering triggers a synchronous re-clustering run. Omitted fields
// fall back to the configured defaults.
func (h *Handler) RunClustering(w http.ResponseWriter, r *http.Request) {
	var req runClusteringRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}

	name := req.Algorithm
	if name == "" {
		name = h.defaults.DefaultAlgorithm
	}
	kind, err := cluster.ParseKind(name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var alg cluster.Algorithm
	switch kind {
	case cluster.KindDBSCAN:
		p := cluster.DBSCANParams{EpsMeters: h.defaults.EpsMeters, MinSamples: h.defaults.MinSamples}
		if req.EpsMeters != nil {
			p.EpsMeters = *req.EpsMeters
		}
		if req.MinSamples != nil {
			p.MinSamples = *req.MinSamples
		}
		alg = p
	case cluster.KindHDBSCAN:
		p := cluster.HDBSCANParams{MinClusterSize: h.defaults.MinClusterSize}
		if req.MinClusterSize != nil {
			p.MinClusterSize = *req.MinClusterSize
		}
		alg = p
	}

	run, err := h.orchestrator.RunReclustering(r.Context(), alg)
	if errors.Is(err, cluster.ErrInvalidParams) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if errors.Is(err, cluster.ErrAlgorithmUnavailable) {
		http.Error(w, err.Error(), http.StatusNotImplemented)
		return
	}
	if err != nil {
		log.Println("Re-clustering failed:", err)
		http.Error(w, "Re-clustering failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

type mapZoneRequest struct {
	ZoneID           int     `json:"zone_id"`
	RepresentativeID int     `json:"representative_id"`
	Name             *string `json:"name"`
	AreaDescription  *string `json:"area_description"`
}

// MapZone binds a representative to a zone.
func (h *Handler) MapZone(w http.ResponseWriter, r *http.Request) {
	var req mapZoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	zone, err := h.registry.BindRepresentative(r.Context(), req.ZoneID, req.RepresentativeID, req.Name, req.AreaDescription)
	switch {
	case errors.Is(err, ErrZoneNotFound):
		http.Error(w, "Zone not found", http.StatusNotFound)
		return
	case errors.Is(err, ErrRepresentativeNotFound):
		http.Error(w, "Representative not found", http.StatusNotFound)
		return
	case errors.Is(err, ErrNotARepresentative):
		http.Error(w, "User is not an active representative", http.StatusUnprocessableEntity)
		return
	case err != nil:
		http.Error(w, "Failed to map zone: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, zone)
}

type autoAssignResponse struct {
	Assigned         bool     `json:"assigned"`
	RepresentativeID *int     `json:"representative_id,omitempty"`
	ZoneID           *int     `json:"zone_id,omitempty"`
	ZoneName         *string  `json:"zone_name,omitempty"`
	DistanceMeters   *float64 `json:"distance_meters,omitempty"`
}

// AutoAssign routes an existing issue to the nearest zone's representative.
// An already-assigned issue is rejected; no eligible zone is a normal
// assigned=false answer.
func (h *Handler) AutoAssign(w http.ResponseWriter, r *http.Request) {
	issueID, err := strconv.Atoi(chi.URLParam(r, "issue_id"))
	if err != nil {
		http.Error(w, "Invalid issue ID", http.StatusBadRequest)
		return
	}

	var issue Issue
	if err := h.db.WithContext(r.Context()).First(&issue, "id = ?", issueID).Error; err != nil {
		http.Error(w, "Issue not found", http.StatusNotFound)
		return
	}
	if issue.AssignedRepresentativeID != nil {
		http.Error(w, "Issue is already assigned", http.StatusConflict)
		return
	}

	result, err := h.orchestrator.AutoAssign(r.Context(), issue.ID, issue.Latitude, issue.Longitude, h.defaults.MaxAssignDistanceMeters)
	if errors.Is(err, ErrIssueNotFound) {
		http.Error(w, "Issue not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("Auto-assign of issue %d failed: %v", issueID, err)
		http.Error(w, "Auto-assign failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if result == nil {
		writeJSON(w, http.StatusOK, autoAssignResponse{Assigned: false})
		return
	}
	writeJSON(w, http.StatusOK, autoAssignResponse{
		Assigned:         true,
		RepresentativeID: &result.RepresentativeID,
		ZoneID:           &result.ZoneID,
		ZoneName:         result.ZoneName,
		DistanceMeters:   &result.DistanceMeters,
	})
}

// GetStatistics returns zone coverage counters for the admin dashboard.
func (h *Handler) GetStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.registry.Statistics(r.Context())
	if err != nil {
		http.Error(w, "Failed to fetch statistics: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// ListRuns returns recent clustering runs, newest first.
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		limit, _ = strconv.Atoi(s)
	}

	runs, err := h.registry.ListRuns(r.Context(), limit)
	if err != nil {
		http.Error(w, "Failed to fetch runs: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

type geocodeRequest struct {
	Address string `json:"address"`
}

// Geocode converts a free-form address to coordinates via Nominatim.
func (h *Handler) Geocode(w http.ResponseWriter, r *http.Request) {
	if h.geocoder == nil {
		http.Error(w, "Geocoding is not configured", http.StatusServiceUnavailable)
		return
	}

	var req geocodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Address == "" {
		http.Error(w, "address is required", http.StatusBadRequest)
		return
	}

	result, err := h.geocoder.Search(r.Context(), req.Address)
	if err != nil {
		http.Error(w, "Geocoding failed: "+err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ReverseGeocode resolves coordinates to the nearest named place.
func (h *Handler) ReverseGeocode(w http.ResponseWriter, r *http.Request) {
	if h.geocoder == nil {
		http.Error(w, "Geocoding is not configured", http.StatusServiceUnavailable)
		return
	}

	lat, err1 := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lon, err2 := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if err1 != nil || err2 != nil {
		http.Error(w, "lat and lon query parameters are required", http.StatusBadRequest)
		return
	}

	result, err := h.geocoder.Reverse(r.Context(), lat, lon)
	if err != nil {
		http.Error(w, "Reverse geocoding failed: "+err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
