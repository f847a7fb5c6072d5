// Package main provides a batch tag provisioning tool for print runs.
//
// It mints unclaimed tags directly in the database and prints one line per
// tag (public code, physical ID, tag ID) for handoff to the label printer.
//
// Usage:
//
//	DATABASE_PATH=~/taglink/taglink.db go run ./cmd/provision --count 100
//	DATABASE_PATH=~/taglink/taglink.db go run ./cmd/provision --code GARDEN01 --physical-id nfc-04a2b3
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"

	"github.com/taglink/taglink-server/internal/service"
	"github.com/taglink/taglink-server/internal/store/sqlite"
)

var (
	count      = flag.Int("count", 0, "Number of tags to mint with generated codes")
	code       = flag.String("code", "", "Explicit public code for a single tag")
	physicalID = flag.String("physical-id", "", "Explicit physical ID for a single tag")
	csv        = flag.Bool("csv", false, "Print CSV instead of aligned columns")
)

func main() {
	flag.Parse()

	dbPath := os.Getenv("DATABASE_PATH")
	if dbPath == "" {
		dbPath = os.ExpandEnv("$HOME/taglink/taglink.db")
	}

	if *count <= 0 && *code == "" && *physicalID == "" {
		log.Fatal("Nothing to do: pass --count N or --code/--physical-id")
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s, err := sqlite.Open(dbPath, logger)
	if err != nil {
		log.Fatalf("Failed to open store at %s: %v", dbPath, err)
	}
	defer s.Close()

	provision := service.NewProvisionService(s, logger)
	ctx := context.Background()

	if *count > 0 {
		tags, err := provision.ProvisionBatch(ctx, *count, nil)
		if err != nil {
			log.Fatalf("Batch provisioning failed: %v", err)
		}
		printHeader()
		for _, t := range tags {
			printTag(t.PublicCode, t.PhysicalID, t.ID)
		}
		fmt.Fprintf(os.Stderr, "Minted %d tags\n", len(tags))
		return
	}

	tag, err := provision.Provision(ctx, *physicalID, *code)
	if err != nil {
		log.Fatalf("Provisioning failed: %v", err)
	}
	printHeader()
	printTag(tag.PublicCode, tag.PhysicalID, tag.ID)
}

func printHeader() {
	if *csv {
		fmt.Println("public_code,physical_id,tag_id")
	}
}

func printTag(publicCode, physical, id string) {
	if *csv {
		fmt.Printf("%s,%s,%s\n", publicCode, physical, id)
		return
	}
	fmt.Printf("%-12s %-24s %s\n", publicCode, physical, id)
}
