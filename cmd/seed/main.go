package main

import (
	"log"
	"os"

	"github.com/JanSetu/JS-Backend/internal/auth"
	"github.com/JanSetu/JS-Backend/internal/db"
	"github.com/JanSetu/JS-Backend/internal/issues"
	"github.com/JanSetu/JS-Backend/internal/seeds"
	"github.com/JanSetu/JS-Backend/internal/zones"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load(".env.local")

	gormDB, err := db.Connect(os.Getenv("DATABASE_URL"))
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

	if err := seeds.SeedAll(gormDB); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	log.Println("Seeding complete")
}
