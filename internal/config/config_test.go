package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/JanSetu/JS-Backend/internal/config"
)

func TestLoadFromEnvDefaults(t *testing.T) {
	t.Setenv("CLUSTERING_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("PORT", "")
	t.Setenv("OTP_LENGTH", "")
	t.Setenv("OTP_EXPIRY_MINUTES", "")

	cfg, err := config.LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}

	if cfg.Port != "5050" {
		t.Errorf("Port = %q, want 5050", cfg.Port)
	}
	if cfg.OTPLength != 6 || cfg.OTPExpiryMinutes != 10 {
		t.Errorf("OTP defaults = %d/%d, want 6/10", cfg.OTPLength, cfg.OTPExpiryMinutes)
	}

	c := cfg.Clustering
	if c.DefaultAlgorithm != "dbscan" {
		t.Errorf("DefaultAlgorithm = %q, want dbscan", c.DefaultAlgorithm)
	}
	if c.EpsMeters != 500 || c.MinSamples != 3 || c.MinClusterSize != 5 {
		t.Errorf("clustering defaults = %v/%v/%v, want 500/3/5", c.EpsMeters, c.MinSamples, c.MinClusterSize)
	}
	if c.MaxAssignDistanceMeters != 5000 {
		t.Errorf("MaxAssignDistanceMeters = %v, want 5000", c.MaxAssignDistanceMeters)
	}
	if c.DeactivateOnEmptyRun == nil || !*c.DeactivateOnEmptyRun {
		t.Error("DeactivateOnEmptyRun should default to true")
	}
}

func TestLoadFromEnvClusteringFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clustering.yaml")
	body := `default_algorithm: hdbscan
eps_meters: 250
min_samples: 4
min_cluster_size: 8
max_assign_distance_meters: 3000
deactivate_on_empty_run: false
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	t.Setenv("CLUSTERING_CONFIG", path)

	cfg, err := config.LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}

	c := cfg.Clustering
	if c.DefaultAlgorithm != "hdbscan" {
		t.Errorf("DefaultAlgorithm = %q, want hdbscan", c.DefaultAlgorithm)
	}
	if c.EpsMeters != 250 || c.MinSamples != 4 || c.MinClusterSize != 8 {
		t.Errorf("clustering values = %v/%v/%v, want 250/4/8", c.EpsMeters, c.MinSamples, c.MinClusterSize)
	}
	if c.MaxAssignDistanceMeters != 3000 {
		t.Errorf("MaxAssignDistanceMeters = %v, want 3000", c.MaxAssignDistanceMeters)
	}
	if c.DeactivateOnEmptyRun == nil || *c.DeactivateOnEmptyRun {
		t.Error("DeactivateOnEmptyRun should be false when the file says so")
	}
}

func TestLoadFromEnvRejectsUnknownAlgorithm(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clustering.yaml")
	if err := os.WriteFile(path, []byte("default_algorithm: kmeans\n"), 0o644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	t.Setenv("CLUSTERING_CONFIG", path)

	if _, err := config.LoadFromEnv(); err == nil {
		t.Fatal("expected an error for an unknown default_algorithm")
	}
}
