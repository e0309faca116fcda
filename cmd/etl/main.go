package main

import (
	"context"
	"flag"
	"log"
	"time"

	"moviedash/internal/config"
	"moviedash/internal/etl"
	"moviedash/pkg/database"
)

func main() {
	var (
		cfgPath = flag.String("config", "", "path to YAML config (optional)")
		input   = flag.String("input", "", "input CSV path (overrides config)")
		archive = flag.Bool("archive", true, "move the CSV to the archive dir after a successful load")
	)
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	source := cfg.Pipeline.SourcePath
	if *input != "" {
		source = *input
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	dbCfg := database.DefaultConfig()
	if cfg.Pipeline.DBPath != "" {
		dbCfg.Path = cfg.Pipeline.DBPath
	}
	db := database.MustOpen(dbCfg)
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	records, err := etl.ReadCSV(source)
	if err != nil {
		log.Fatalf("read csv failed: %v", err)
	}

	loader := etl.NewLoader(db)
	summary, err := loader.Load(ctx, source, records)
	if err != nil {
		// store untouched beyond the rolled-back tx; source not archived
		log.Fatalf("load failed: %v", err)
	}

	log.Printf("✅ run %s: loaded %d movies into %s (%d rejected, %dms)",
		summary.RunID, summary.Accepted, dbCfg.Path, summary.Rejected, summary.DurationMS)

	if *archive && cfg.Pipeline.Archive {
		dst, err := etl.NewArchiver(cfg.Pipeline.ArchiveDir).Archive(source)
		if err != nil {
			log.Fatalf("archive failed: %v", err)
		}
		log.Printf("📦 archived %s → %s", source, dst)
	}
}
