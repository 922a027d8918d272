// Command refresh runs one fetch-and-combine cycle from the command line,
// useful for cron-less setups and for debugging feed problems.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jkoski/spotcost-go/config"
	"github.com/jkoski/spotcost-go/database"
	"github.com/jkoski/spotcost-go/elenia"
	"github.com/jkoski/spotcost-go/hours"
	"github.com/jkoski/spotcost-go/task"
	"github.com/jkoski/spotcost-go/vattenfall"
	"github.com/lmittmann/tint"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	logger := slog.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level:      slog.LevelDebug,
		TimeFormat: time.RFC3339,
	}))
	slog.SetDefault(logger)

	cnfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}

	keyer, err := hours.NewKeyer(cnfg.Combine.GetTimezone(), cnfg.Combine.GetOffsetSuffix())
	if err != nil {
		panic(err)
	}

	db, err := database.New(context.Background(), cnfg.Database.Path)
	if err != nil {
		panic(err)
	}
	defer db.Close()
	db.SetLogger(logger.With("module", "database"))

	refresher := task.NewRefresher(
		logger,
		db,
		elenia.New(cnfg.Elenia.Username, cnfg.Elenia.Password),
		vattenfall.New(cnfg.Vattenfall.GetVatRate()),
		keyer,
		cnfg)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	result, err := refresher.Run(ctx)
	if err != nil {
		logger.Error("refresh failed", slog.Any("error", err))
		os.Exit(1)
	}

	fmt.Printf("combined %d records (%d skipped rows) in %s\n",
		result.Records, result.SkippedRows, result.Duration)
}
