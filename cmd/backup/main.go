package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"quizquest/internal/config"
	"quizquest/internal/database"
	"quizquest/internal/docstore"
	"quizquest/internal/logger"
	"quizquest/internal/service"
)

func main() {
	// Define subcommands
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	importCmd := flag.NewFlagSet("import", flag.ExitOnError)

	// Export flags
	exportOutput := exportCmd.String("output", "", "Output file path (default: backup_YYYYMMDD_HHMMSS.json)")

	// Import flags
	importInput := importCmd.String("input", "", "Input file path (required)")
	importClear := importCmd.Bool("clear", false, "Delete documents missing from the backup (WARNING: destructive)")
	importYes := importCmd.Bool("yes", false, "Skip the confirmation prompt for -clear")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// Load configuration
	cfg := config.Load()
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if strings.EqualFold(cfg.StoreType, "memory") {
		log.Fatal("The backup tool needs STORE_TYPE=sql; the in-memory store lives inside the server process")
	}

	ctx := context.Background()

	// Initialize database
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatal("Failed to initialize database", "error", err)
	}
	defer db.Close()

	// Run migrations to ensure schema is up to date
	if _, err := db.RunMigrations(ctx, cfg.MigrationsPath); err != nil {
		log.Fatal("Failed to run migrations", "error", err)
	}

	backupService := service.NewBackupService(docstore.NewSQLStore(db), cfg.DatabaseType, log)

	switch os.Args[1] {
	case "export":
		exportCmd.Parse(os.Args[2:])
		handleExport(ctx, backupService, log, *exportOutput)

	case "import":
		importCmd.Parse(os.Args[2:])
		if *importInput == "" {
			fmt.Println("Error: -input flag is required")
			importCmd.PrintDefaults()
			os.Exit(1)
		}
		handleImport(ctx, backupService, log, *importInput, *importClear, *importYes)

	default:
		printUsage()
		os.Exit(1)
	}
}

func handleExport(ctx context.Context, backupService *service.BackupService, log *logger.Logger, outputPath string) {
	// Generate default filename if not provided
	if outputPath == "" {
		timestamp := time.Now().Format("20060102_150405")
		outputPath = fmt.Sprintf("backup_%s.json", timestamp)
	}

	// Ensure directory exists
	dir := filepath.Dir(outputPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatal("Failed to create output directory", "error", err)
		}
	}

	count, err := backupService.Export(ctx, outputPath)
	if err != nil {
		log.Fatal("Export failed", "error", err)
	}

	fileInfo, err := os.Stat(outputPath)
	if err == nil {
		log.Info("Export complete", "documents", count, "size_mb", fmt.Sprintf("%.2f", float64(fileInfo.Size())/1024/1024))
	}
}

func handleImport(ctx context.Context, backupService *service.BackupService, log *logger.Logger, inputPath string, clearData, skipConfirm bool) {
	// Check if file exists
	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		log.Fatal("Input file does not exist", "input", inputPath)
	}

	if clearData && !skipConfirm {
		fmt.Print("WARNING: Documents missing from the backup will be deleted. Type 'yes' to confirm: ")
		var confirmation string
		fmt.Scanln(&confirmation)
		if confirmation != "yes" {
			log.Info("Import cancelled")
			return
		}
	}

	count, err := backupService.Import(ctx, inputPath, clearData)
	if err != nil {
		log.Fatal("Import failed", "error", err)
	}

	log.Info("Import complete", "documents", count, "clear", clearData)
}

func printUsage() {
	fmt.Println("QuizQuest Document Store Backup Tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  backup export [options]    Export every document to a JSON file")
	fmt.Println("  backup import [options]    Import documents from a JSON file")
	fmt.Println()
	fmt.Println("Export Options:")
	fmt.Println("  -output <file>    Output file path (default: backup_YYYYMMDD_HHMMSS.json)")
	fmt.Println()
	fmt.Println("Import Options:")
	fmt.Println("  -input <file>     Input file path (required)")
	fmt.Println("  -clear            Delete documents missing from the backup (WARNING: destructive)")
	fmt.Println("  -yes              Do not ask for confirmation")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  backup export -output mybackup.json")
	fmt.Println("  backup import -input backup.json")
	fmt.Println("  backup import -input backup.json -clear")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  DATABASE_TYPE    Database type: sqlite, postgres, or mysql (default: sqlite)")
	fmt.Println("  DB_PATH          SQLite database path (default: ./quizquest.db)")
	fmt.Println("  DATABASE_URL     PostgreSQL or MySQL connection URL")
	fmt.Println("  MIGRATIONS_PATH  Directory holding <dialect>/*.sql (default: ./migrations)")
}
