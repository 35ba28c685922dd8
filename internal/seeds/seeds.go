package seeds

import (
	"log"

	"github.com/JanSetu/JS-Backend/internal/auth"
	"github.com/JanSetu/JS-Backend/internal/issues"
	"gorm.io/gorm"
)

func SeedAll(db *gorm.DB) error {
	if err := SeedUsers(db); err != nil {
		return err
	}
	if err := SeedIssues(db); err != nil {
		return err
	}
	return nil
}

func strPtr(s string) *string { return &s }

// SeedUsers creates a coordinator and two ward representatives. Numbers
// are fictional; OTP login still works against them through the console
// sender.
func SeedUsers(db *gorm.DB) error {
	users := []auth.User{
		{Name: "Demo Coordinator", MobileNumber: "+919800000001", Role: auth.RoleCoordinator, IsActive: true},
		{Name: "Ravi Negi", MobileNumber: "+919800000002", Role: auth.RoleRepresentative, VillageName: strPtr("Rajpur"), IsActive: true},
		{Name: "Meera Joshi", MobileNumber: "+919800000003", Role: auth.RoleRepresentative, VillageName: strPtr("Clement Town"), IsActive: true},
		{Name: "Asha Devi", MobileNumber: "+919800000004", Role: auth.RoleCitizen, IsActive: true},
	}

	for _, u := range users {
		var existing auth.User
		if err := db.First(&existing, "mobile_number = ?", u.MobileNumber).Error; err == nil {
			continue
		}
		if err := db.Create(&u).Error; err != nil {
			return err
		}
		log.Printf("Seeded user %s (%s)", u.Name, u.Role)
	}
	return nil
}

// SeedIssues plants reports in two dense neighborhoods of Dehradun plus a
// stray one, enough for a clustering run to find two zones.
func SeedIssues(db *gorm.DB) error {
	var count int64
	if err := db.Model(&issues.Issue{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		log.Printf("Issues already present (%d), skipping issue seed", count)
		return nil
	}

	reports := []issues.Issue{
		{IssueType: issues.TypeWater, Description: "No water supply on Rajpur Road for three days", Latitude: 30.3165, Longitude: 78.0322},
		{IssueType: issues.TypeRoad, Description: "Potholes near the clock tower crossing getting worse", Latitude: 30.3170, Longitude: 78.0330},
		{IssueType: issues.TypeGarbage, Description: "Garbage pile behind the Paltan Bazaar lane uncollected", Latitude: 30.3160, Longitude: 78.0315},
		{IssueType: issues.TypeElectricity, Description: "Street lights out on the stretch toward Gandhi Park", Latitude: 30.3172, Longitude: 78.0325},
		{IssueType: issues.TypeWater, Description: "Leaking pipeline flooding the lane near the school", Latitude: 30.3158, Longitude: 78.0328},
		{IssueType: issues.TypeRoad, Description: "Broken divider on the Clement Town main road", Latitude: 30.3500, Longitude: 78.0800},
		{IssueType: issues.TypeGarbage, Description: "Overflowing bins at the Clement Town market", Latitude: 30.3505, Longitude: 78.0808},
		{IssueType: issues.TypeWater, Description: "Low pressure in Clement Town phase two", Latitude: 30.3495, Longitude: 78.0795},
		{IssueType: issues.TypeElectricity, Description: "Transformer sparking near the Clement Town gurudwara", Latitude: 30.3502, Longitude: 78.0803},
		{IssueType: issues.TypeRoad, Description: "Waterlogged stretch by the Clement Town underpass", Latitude: 30.3498, Longitude: 78.0810},
		{IssueType: issues.TypeRoad, Description: "Landslide debris on the Mussoorie road bend", Latitude: 30.5500, Longitude: 78.3500},
	}

	for i := range reports {
		reports[i].Status = issues.StatusReported
		if err := db.Create(&reports[i]).Error; err != nil {
			return err
		}
	}
	log.Printf("Seeded %d issues", len(reports))
	return nil
}
