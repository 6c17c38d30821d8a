package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	firebase "firebase.google.com/go/v4"
	"github.com/joho/godotenv"
	"google.golang.org/api/option"

	"nurifarm/models"
)

var asJSON = flag.Bool("json", false, "Print the raw report as indented JSON")

func main() {
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	serviceAccountJSON := os.Getenv("FIREBASE_SERVICE_ACCOUNT_JSON")
	dbURL := os.Getenv("FIREBASE_DB_URL")
	path := os.Getenv("FIREBASE_MIRROR_PATH")
	if path == "" {
		path = "farm-report/latest"
	}

	if serviceAccountJSON == "" {
		log.Fatal("FIREBASE_SERVICE_ACCOUNT_JSON environment variable is not set")
	}
	if dbURL == "" {
		log.Fatal("FIREBASE_DB_URL environment variable is not set")
	}

	ctx := context.Background()
	app, err := firebase.NewApp(ctx, &firebase.Config{DatabaseURL: dbURL}, option.WithCredentialsJSON([]byte(serviceAccountJSON)))
	if err != nil {
		log.Fatalf("Error initializing Firebase app: %v", err)
	}

	client, err := app.Database(ctx)
	if err != nil {
		log.Fatalf("Error getting database client: %v", err)
	}

	var report models.FarmReport
	if err := client.NewRef(path).Get(ctx, &report); err != nil {
		log.Fatalf("Error reading farm report: %v", err)
	}
	if report.RunID == "" {
		log.Fatalf("No report mirrored at %s yet", path)
	}

	if *asJSON {
		out, _ := json.MarshalIndent(report, "", "  ")
		fmt.Println(string(out))
		return
	}

	f := report.Farm
	fmt.Printf("Run %s, tick %d at %s\n", report.RunID, report.Sequence, report.Timestamp.Format("2006-01-02 15:04:05"))
	fmt.Printf("Cells: %d/%d active (%.1f%%), %d harvest ready\n", f.ActiveCells, f.TotalCells, f.SystemHealth, f.HarvestReadyCells)
	fmt.Printf("Projected: %.1f kg, revenue %.0f\n", f.ProjectedHarvest, f.ProjectedRevenue)
	fmt.Println("---")
	for _, h := range report.Houses {
		fmt.Printf("%-8s %5.1f°C %5.1f%% %6.0f ppm  cells %d/%d  hoist %s  alerts %d\n",
			h.Name, h.Temperature, h.Humidity, h.CO2, h.ActiveCells, h.TotalCells, h.HoistStatus, h.ActiveAlerts)
	}
	if len(report.Alerts) > 0 {
		fmt.Println("---")
		for _, a := range report.Alerts {
			fmt.Printf("[%s] %s\n", a.Severity, a.Message)
		}
	}
}
