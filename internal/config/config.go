package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"
)

// Config holds everything the composition root wires into the modules.
type Config struct {
	Port        string
	DatabaseURL string

	// MinIO photo storage
	MinioEndpoint string
	MinioUser     string
	MinioPassword string
	MinioBucket   string
	MinioSecure   bool

	// Twilio SMS (optional; console sender is used when unset)
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string

	// OTP
	OTPExpiryMinutes int
	OTPLength        int

	Clustering Clustering
}

// Clustering carries the defaults for the re-clustering operation and the
// explicit policy switches around it. Values come from clustering.yaml when
// present, falling back to the same defaults the platform has always used.
type Clustering struct {
	// "dbscan" or "hdbscan"
	DefaultAlgorithm string  `yaml:"default_algorithm"`
	EpsMeters        float64 `yaml:"eps_meters"`
	MinSamples       int     `yaml:"min_samples"`
	MinClusterSize   int     `yaml:"min_cluster_size"`

	// Maximum centroid distance for nearest-zone resolution.
	MaxAssignDistanceMeters float64 `yaml:"max_assign_distance_meters"`

	// Whether a run that yields zero clusters still deactivates the
	// current zone generation. True matches the historical behavior;
	// false keeps the old generation live until a run produces zones.
	DeactivateOnEmptyRun *bool `yaml:"deactivate_on_empty_run"`
}

const DefaultClusteringFile = "clustering.yaml"

// LoadFromEnv reads the environment (godotenv is loaded by main) and the
// optional clustering YAML file named by CLUSTERING_CONFIG.
func LoadFromEnv() (Config, error) {
	cfg := Config{
		Port:        getEnv("PORT", "5050"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		MinioEndpoint: getEnv("MINIO_ENDPOINT", "localhost:9000"),
		MinioUser:     getEnv("MINIO_USER", "admin"),
		MinioPassword: os.Getenv("MINIO_PASSWORD"),
		MinioBucket:   getEnv("MINIO_BUCKET", "jansetu-images"),
		MinioSecure:   strings.EqualFold(os.Getenv("MINIO_SECURE"), "true"),

		TwilioAccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioFromNumber: os.Getenv("TWILIO_FROM_NUMBER"),

		OTPExpiryMinutes: getEnvInt("OTP_EXPIRY_MINUTES", 10),
		OTPLength:        getEnvInt("OTP_LENGTH", 6),

		Clustering: DefaultClustering(),
	}

	path := getEnv("CLUSTERING_CONFIG", DefaultClusteringFile)
	if err := loadClusteringFile(path, &cfg.Clustering); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// DefaultClustering returns the built-in clustering defaults.
func DefaultClustering() Clustering {
	deactivate := true
	return Clustering{
		DefaultAlgorithm:        "dbscan",
		EpsMeters:               500,
		MinSamples:              3,
		MinClusterSize:          5,
		MaxAssignDistanceMeters: 5000,
		DeactivateOnEmptyRun:    &deactivate,
	}
}

func loadClusteringFile(path string, out *Clustering) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // file is optional
		}
		return fmt.Errorf("reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	if out.DefaultAlgorithm != "dbscan" && out.DefaultAlgorithm != "hdbscan" {
		return fmt.Errorf("%s: unknown default_algorithm %q", path, out.DefaultAlgorithm)
	}
	if out.DeactivateOnEmptyRun == nil {
		deactivate := true
		out.DeactivateOnEmptyRun = &deactivate
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
