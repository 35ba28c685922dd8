package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/JanSetu/JS-Backend/internal/cluster"
	"github.com/JanSetu/JS-Backend/internal/config"
	"github.com/JanSetu/JS-Backend/internal/db"
	"github.com/JanSetu/JS-Backend/internal/zones"
	"github.com/joho/godotenv"
)

// Runs one clustering pass from the command line, same path the
// coordinator endpoint takes. Useful for cron and for re-running after a
// bulk import.
func main() {
	algorithm := flag.String("algorithm", "", "dbscan or hdbscan (default from config)")
	eps := flag.Float64("eps", 0, "DBSCAN neighborhood radius in meters (default from config)")
	minSamples := flag.Int("min-samples", 0, "DBSCAN minimum neighborhood size (default from config)")
	minClusterSize := flag.Int("min-cluster-size", 0, "HDBSCAN minimum cluster size (default from config)")
	timeout := flag.Duration("timeout", 5*time.Minute, "overall run timeout")
	flag.Parse()

	_ = godotenv.Load(".env.local")

	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatal("Failed to load config: ", err)
	}

	name := *algorithm
	if name == "" {
		name = cfg.Clustering.DefaultAlgorithm
	}
	kind, err := cluster.ParseKind(name)
	if err != nil {
		log.Fatal(err)
	}

	var alg cluster.Algorithm
	switch kind {
	case cluster.KindDBSCAN:
		p := cluster.DBSCANParams{EpsMeters: cfg.Clustering.EpsMeters, MinSamples: cfg.Clustering.MinSamples}
		if *eps > 0 {
			p.EpsMeters = *eps
		}
		if *minSamples > 0 {
			p.MinSamples = *minSamples
		}
		alg = p
	case cluster.KindHDBSCAN:
		p := cluster.HDBSCANParams{MinClusterSize: cfg.Clustering.MinClusterSize}
		if *minClusterSize > 0 {
			p.MinClusterSize = *minClusterSize
		}
		alg = p
	}

	gormDB, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}
	if err := zones.Init(gormDB); err != nil {
		log.Fatal("Failed to migrate zone tables: ", err)
	}

	registry := zones.NewRegistry(gormDB, *cfg.Clustering.DeactivateOnEmptyRun)
	resolver := zones.NewResolver(gormDB)
	orchestrator := zones.NewOrchestrator(gormDB, registry, resolver)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	run, err := orchestrator.RunReclustering(ctx, alg)
	if err != nil {
		log.Fatalf("Re-clustering failed: %v", err)
	}
	log.Printf("Run %d done: %s, %d clusters, %d noise of %d points",
		run.ID, run.Algorithm, run.NumClusters, run.NumNoisePoints, run.TotalPoints)
}
