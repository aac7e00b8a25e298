package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"charityreports/process/ingestwatch"
)

func main() {
	dir := flag.String("dir", "incoming", "directory to scan for donation files")
	watch := flag.Bool("watch", false, "watch directory for new files")
	workers := flag.Int("workers", 0, "report worker pool size (default NumCPU)")
	verbose := flag.Bool("verbose", false, "verbose per-job logging")
	flag.Parse()

	_ = godotenv.Load()
	if os.Getenv("DB_DSN") == "" {
		fmt.Fprintln(os.Stderr, "DB_DSN not set; export DB_DSN and retry")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := ingestwatch.Config{Dir: *dir, Watch: *watch, Workers: *workers, Verbose: *verbose}
	if err := ingestwatch.Run(ctx, cfg); err != nil {
		log.Fatalf("ingest watch failed: %v", err)
	}
}
