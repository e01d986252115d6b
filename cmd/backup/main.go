package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"time"

	"github.com/2beens/fittrack/internal/backup"
	"github.com/2beens/fittrack/internal/config"
	"github.com/2beens/fittrack/internal/db"
	"github.com/2beens/fittrack/internal/logging"
	"github.com/2beens/fittrack/internal/users"

	log "github.com/sirupsen/logrus"
)

// users google drive backup cmd

func main() {
	env := flag.String("env", "development", "environment [prod | production | dev | development]")
	configPath := flag.String("config", "./config.toml", "path for the TOML config file")
	credentialsFile := flag.String("gd-creds", "./drive-credentials.json", "google drive service account credentials json")
	logsPath := flag.String("logs-path", "", "backup logs file path (empty for stdout)")
	localDir := flag.String("local-dir", "", "also write the snapshot into this directory")
	dryRun := flag.Bool("dry-run", false, "build the snapshot, skip the google drive upload")
	flag.Parse()

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		panic(err)
	}

	logging.Setup(logging.LoggerSetupParams{
		LogFileName:   *logsPath,
		LogToStdout:   *logsPath == "",
		LogLevel:      cfg.LogLevel,
		LogFormatJSON: cfg.LogFormatJSON,
		Environment:   cfg.Environment,
	})

	log.Println("starting users backup ...")

	if cfg.Storage != config.StoragePostgres {
		log.Fatalf("backup needs postgres storage, got [%s]", cfg.Storage)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost:     cfg.PostgresHost,
		DBPort:     cfg.PostgresPort,
		DBUser:     cfg.PostgresUser,
		DBPassword: os.Getenv("FITTRACK_DB_PASSWORD"),
		DBName:     cfg.PostgresDBName,
	})
	if err != nil {
		log.Fatalf("new db pool: %s", err)
	}
	defer dbPool.Close()

	service := users.NewService(users.NewRepo(dbPool))
	snapshot, err := backup.NewSnapshot(ctx, service, time.Now())
	if err != nil {
		log.Fatalf("create snapshot: %s", err)
	}
	log.Printf("snapshot %s created with %d users", snapshot.FileName(), snapshot.UsersCount)

	if *localDir != "" {
		if err := writeLocal(*localDir, snapshot); err != nil {
			log.Fatalf("write local snapshot: %s", err)
		}
	}

	if *dryRun {
		log.Println("dry run, skipping upload")
		return
	}

	credentialsFileBytes, err := os.ReadFile(*credentialsFile)
	if err != nil {
		log.Fatalf("unable to read credentials file: %v", err)
	}

	uploader, err := backup.NewGoogleDriveUploaderFromCredentials(ctx, credentialsFileBytes, cfg.BackupFolderName)
	if err != nil {
		log.Fatalf("failed to create google drive uploader: %s", err)
	}

	fileID, err := uploader.Upload(ctx, snapshot)
	if err != nil {
		log.Fatalf("upload snapshot: %s", err)
	}

	log.Printf("backup done: %s", fileID)
}

func writeLocal(dir string, snapshot *backup.Snapshot) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := snapshot.Marshal()
	if err != nil {
		return err
	}
	path := filepath.Join(dir, snapshot.FileName())
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	log.Printf("snapshot written to %s", path)
	return nil
}
