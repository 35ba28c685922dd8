package main

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
)

// CLI flags
var (
	csvPath = flag.String("csv", "", "Path to the source CSV (required)")
	dsn     = flag.String("dsn", os.Getenv("DATABASE_URL"), "Postgres DSN (default: env DATABASE_URL)")
	dryRun  = flag.Bool("dry-run", false, "Parse + validate only; no DB writes")
	confirm = flag.Bool("confirm", false, "Required to perform the import")
)

// CSV contract
// issue_type,description,latitude,longitude,ward_name
// ward_name may be empty; every imported issue starts as reported

type issueCSV struct {
	IssueType   string
	Description string
	Latitude    float64
	Longitude   float64
	WardName    string
}

var validTypes = map[string]struct{}{
	"water":       {},
	"electricity": {},
	"road":        {},
	"garbage":     {},
}

func main() {
	_ = godotenv.Load(".env.local")
	flag.Parse()
	if *csvPath == "" {
		fatalf("--csv is required")
	}
	if *dsn == "" {
		fatalf("--dsn not provided and DATABASE_URL not set")
	}

	rows, err := loadCSV(*csvPath)
	if err != nil {
		fatalf("CSV error: %v", err)
	}
	if err := validateRows(rows); err != nil {
		fatalf("CSV validation failed: %v", err)
	}

	fmt.Printf("Loaded %d issues from %s\n", len(rows), *csvPath)

	if *dryRun {
		fmt.Println("Dry run complete. No changes made.")
		return
	}
	if !*confirm {
		fatalf("Refusing to run without --confirm. Add --dry-run to preview.")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := sql.Open("pgx", *dsn)
	if err != nil {
		fatalf("DB open error: %v", err)
	}
	defer db.Close()

	inserted, err := importIssues(ctx, db, rows)
	if err != nil {
		fatalf("Import failed: %v", err)
	}
	fmt.Printf("Imported %d issues. Run cmd/recluster to rebuild zones.\n", inserted)
}

func loadCSV(path string) ([]issueCSV, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(bufio.NewReader(f))
	r.FieldsPerRecord = 5

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	if strings.ToLower(header[0]) != "issue_type" {
		return nil, errors.New("first column must be issue_type; is the header row missing?")
	}

	var rows []issueCSV
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		lat, err := strconv.ParseFloat(record[2], 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: bad latitude %q", len(rows)+2, record[2])
		}
		lon, err := strconv.ParseFloat(record[3], 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: bad longitude %q", len(rows)+2, record[3])
		}

		rows = append(rows, issueCSV{
			IssueType:   strings.TrimSpace(record[0]),
			Description: strings.TrimSpace(record[1]),
			Latitude:    lat,
			Longitude:   lon,
			WardName:    strings.TrimSpace(record[4]),
		})
	}
	return rows, nil
}

func validateRows(rows []issueCSV) error {
	if len(rows) == 0 {
		return errors.New("no data rows")
	}
	for i, row := range rows {
		line := i + 2
		if _, ok := validTypes[row.IssueType]; !ok {
			return fmt.Errorf("row %d: unknown issue_type %q", line, row.IssueType)
		}
		if len(row.Description) < 10 {
			return fmt.Errorf("row %d: description too short", line)
		}
		if row.Latitude < -90 || row.Latitude > 90 || row.Longitude < -180 || row.Longitude > 180 {
			return fmt.Errorf("row %d: coordinates out of range", line)
		}
	}
	return nil
}

func importIssues(ctx context.Context, db *sql.DB, rows []issueCSV) (int64, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO issues (issue_type, description, latitude, longitude, ward_name, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), 'reported', NOW(), NOW())
	`)
	if err != nil {
		return 0, fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	var inserted int64
	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, row.IssueType, row.Description, row.Latitude, row.Longitude, row.WardName); err != nil {
			return 0, fmt.Errorf("inserting %q: %w", row.Description, err)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
