package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/yungbote/stampcard-backend/internal/app"
	"github.com/yungbote/stampcard-backend/internal/services"
)

type idList []string

func (l *idList) String() string { return strings.Join(*l, ",") }
func (l *idList) Set(v string) error {
	v = strings.TrimSpace(v)
	if v != "" {
		*l = append(*l, v)
	}
	return nil
}

func main() {
	var users idList
	var dryRun bool
	flag.Var(&users, "user", "profile id to recompute (repeatable); all profiles when omitted")
	flag.BoolVar(&dryRun, "dry-run", false, "report drift without writing")
	flag.Parse()

	ctx := context.Background()
	application, err := app.NewCommand(ctx)
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	stamps := application.Services.Stamp
	var drifted []services.CountDrift
	if len(users) > 0 {
		for _, id := range users {
			d, err := stamps.Recompute(ctx, id, !dryRun)
			if err != nil {
				fmt.Printf("recompute %s: %v\n", id, err)
				application.Close()
				os.Exit(1)
			}
			if d.Drifted() {
				drifted = append(drifted, *d)
			}
		}
	} else {
		drifted, err = stamps.RecomputeAll(ctx, !dryRun)
		if err != nil {
			fmt.Printf("recompute: %v\n", err)
			application.Close()
			os.Exit(1)
		}
	}

	for _, d := range drifted {
		fmt.Printf("%s stamp_count %d -> %d, visit_count %d -> %d\n", d.UserID, d.StampCount, d.ExpectedStamp, d.VisitCount, d.ExpectedVisit)
	}
	verb := "fixed"
	if dryRun {
		verb = "found (dry run)"
	}
	fmt.Printf("%d drifted profile(s) %s\n", len(drifted), verb)
}
