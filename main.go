package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/JanSetu/JS-Backend/internal/auth"
	"github.com/JanSetu/JS-Backend/internal/config"
	"github.com/JanSetu/JS-Backend/internal/db"
	"github.com/JanSetu/JS-Backend/internal/fieldops"
	"github.com/JanSetu/JS-Backend/internal/geocoding"
	"github.com/JanSetu/JS-Backend/internal/issues"
	"github.com/JanSetu/JS-Backend/internal/middleware"
	"github.com/JanSetu/JS-Backend/internal/storage"
	"github.com/JanSetu/JS-Backend/internal/zones"
	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
)

func RootHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, "Server is up!")
}

func main() {
	_ = godotenv.Load(".env.local")

	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatal("Failed to load config: ", err)
	}

	gormDB, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}

	if err := auth.Init(gormDB); err != nil {
		log.Fatal("Failed to migrate auth tables: ", err)
	}
	if err := issues.Init(gormDB); err != nil {
		log.Fatal("Failed to migrate issue tables: ", err)
	}
	if err := zones.Init(gormDB); err != nil {
		log.Fatal("Failed to migrate zone tables: ", err)
	}

	var photos issues.PhotoStore
	if cfg.MinioPassword != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		store, err := storage.NewPhotoStore(ctx, storage.Options{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioUser,
			SecretKey: cfg.MinioPassword,
			Bucket:    cfg.MinioBucket,
			Secure:    cfg.MinioSecure,
		})
		cancel()
		if err != nil {
			log.Fatal("Failed to connect to MinIO: ", err)
		}
		photos = store
	} else {
		log.Println("MINIO_PASSWORD not set; photo upload disabled")
	}

	var sms auth.Sender = auth.ConsoleSender{}
	if cfg.TwilioAccountSID != "" && cfg.TwilioAuthToken != "" {
		sms = auth.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber)
	} else {
		log.Println("Twilio not configured; OTPs go to the server log")
	}

	geocoder := geocoding.NewClient("")

	fetcher := auth.SessionInfo{DB: gormDB}

	registry := zones.NewRegistry(gormDB, *cfg.Clustering.DeactivateOnEmptyRun)
	resolver := zones.NewResolver(gormDB)
	orchestrator := zones.NewOrchestrator(gormDB, registry, resolver)

	authHandler := auth.NewHandler(gormDB, sms, time.Duration(cfg.OTPExpiryMinutes)*time.Minute, cfg.OTPLength)
	issueHandler := issues.NewHandler(gormDB, photos)
	zoneHandler := zones.NewHandler(gormDB, registry, resolver, orchestrator, geocoder, cfg.Clustering)
	fieldHandler := fieldops.NewHandler(gormDB)

	r := chi.NewRouter()
	r.Use(middleware.CORSMiddleware)
	r.Get("/", RootHandler)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})

	r.Mount("/auth", auth.SetupRoutes(authHandler, fetcher))
	r.Mount("/reports", issues.SetupRoutes(issueHandler, fetcher))
	r.Mount("/zones", zones.SetupRoutes(zoneHandler, fetcher))
	r.Mount("/fieldops", fieldops.SetupRoutes(fieldHandler, fetcher))

	log.Printf("Server listening on port :%s...", cfg.Port)
	if err := http.ListenAndServe("0.0.0.0:"+cfg.Port, r); err != nil {
		log.Fatal(err)
	}
}
