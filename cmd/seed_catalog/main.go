package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/yungbote/stampcard-backend/internal/app"
	"github.com/yungbote/stampcard-backend/internal/services"
)

func main() {
	var path string
	var validateOnly bool
	flag.StringVar(&path, "file", os.Getenv("CATALOG_PATH"), "catalog YAML file (defaults to CATALOG_PATH)")
	flag.BoolVar(&validateOnly, "validate", false, "parse and validate the file without touching the database")
	flag.Parse()

	if path == "" {
		fmt.Println("no catalog file: pass -file or set CATALOG_PATH")
		os.Exit(2)
	}
	catalog, err := services.LoadCatalog(path)
	if err != nil {
		fmt.Printf("load catalog: %v\n", err)
		os.Exit(1)
	}
	if validateOnly {
		fmt.Printf("%s: %d reward(s), %d survey(s) OK\n", path, len(catalog.Rewards), len(catalog.Surveys))
		return
	}

	ctx := context.Background()
	application, err := app.NewCommand(ctx)
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	res, err := application.Services.Catalog.Seed(ctx, catalog)
	if err != nil {
		fmt.Printf("seed catalog: %v\n", err)
		application.Close()
		os.Exit(1)
	}
	fmt.Printf("seeded %d reward(s), %d survey(s) from %s\n", res.Rewards, res.Surveys, path)
}
