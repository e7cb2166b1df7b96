package main

import (
	"context"
	"log"
	"path/filepath"
	"strings"

	"psephos/adapters/csvdata"
	"psephos/adapters/excel"
	"psephos/adapters/postgres"
	"psephos/app"
	"psephos/domain/dataset"
	"psephos/internal/api"
	"psephos/internal/config"
	"psephos/ui"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// loadDataset picks a reader by file extension. Both readers produce the
// same record shape, so everything downstream is format-agnostic.
func loadDataset(dataConfig config.DataConfig) (*dataset.Dataset, error) {
	switch strings.ToLower(filepath.Ext(dataConfig.File)) {
	case ".xlsx", ".xlsm":
		return excel.NewReader(dataConfig.File, dataConfig.NameColumn, dataConfig.CodeColumn).Read()
	default:
		return csvdata.NewReader(dataConfig.File, dataConfig.NameColumn, dataConfig.CodeColumn).Read()
	}
}

// initDatabase connects to Postgres and runs migrations. The database is
// optional: with no DATABASE_URL the server runs memory-only.
func initDatabase(appConfig *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", appConfig.Database.URL)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}

	ctx := context.Background()
	if err := postgres.NewDatasetRepository(db).Migrate(ctx); err != nil {
		return nil, err
	}
	if err := postgres.NewSelectionStateRepository(db).Migrate(ctx); err != nil {
		return nil, err
	}
	return db, nil
}

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	catalog, err := config.LoadCatalog()
	if err != nil {
		log.Fatalf("Failed to load catalog: %v", err)
	}

	ds, err := loadDataset(appConfig.Data)
	if err != nil {
		log.Fatalf("Failed to load dataset from %s: %v", appConfig.Data.File, err)
	}
	log.Printf("Loaded %d constituencies from %s", ds.Len(), appConfig.Data.File)

	var datasetRepo *postgres.DatasetRepository
	var selectionStore app.SelectionStore
	if appConfig.Database.URL != "" {
		db, err := initDatabase(appConfig)
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		defer db.Close()

		datasetRepo = postgres.NewDatasetRepository(db)
		selectionStore = postgres.NewSelectionStateRepository(db)

		datasetID, err := datasetRepo.Save(context.Background(), filepath.Base(appConfig.Data.File), ds)
		if err != nil {
			log.Fatalf("Failed to persist dataset: %v", err)
		}
		log.Printf("Postgres connected, dataset stored as %s", datasetID)
	} else {
		log.Println("No DATABASE_URL configured, running memory-only")
	}

	hub := api.NewSSEHub()
	service := app.NewExplorerService(ds, catalog, appConfig.Pipeline, hub)
	if selectionStore != nil {
		service.UseSelectionStore(selectionStore)
	}
	server := ui.NewServer(service, hub)
	if datasetRepo != nil {
		server.WithDatasetRepository(datasetRepo)
	}

	log.Printf("🚀 Starting Psephos server on port %s", appConfig.Server.Port)
	log.Fatal(server.Run(appConfig.Server.Port))
}
