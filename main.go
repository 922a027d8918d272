package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jkoski/spotcost-go/config"
	"github.com/jkoski/spotcost-go/database"
	"github.com/jkoski/spotcost-go/elenia"
	"github.com/jkoski/spotcost-go/hours"
	"github.com/jkoski/spotcost-go/logging"
	"github.com/jkoski/spotcost-go/task"
	"github.com/jkoski/spotcost-go/vattenfall"
	"github.com/jkoski/spotcost-go/www"
	"github.com/lmittmann/tint"
)

var Version = "?.?.?"

func main() {
	defer func() {
		if err := recover(); err != nil {
			exitWithError(slog.Default(), fmt.Errorf("application panicked: %v", err))
		} else {
			slog.Default().Info("application is shutting down...")
		}
	}()

	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cnfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	keyer, err := hours.NewKeyer(cnfg.Combine.GetTimezone(), cnfg.Combine.GetOffsetSuffix())
	if err != nil {
		panic(fmt.Sprintf("failed to set up timestamp keyer: %v", err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	consoleHandler := tint.NewHandler(os.Stdout, &tint.Options{
		Level:      cnfg.Logging.GetConsoleLevel(),
		TimeFormat: time.RFC3339,
	})
	slog.New(consoleHandler).Debug("spotcost is starting...", slog.String("version", Version))

	db, err := database.New(ctx, cnfg.Database.Path)
	if err != nil {
		panic(fmt.Sprintf("failed to connect to database: %v", err))
	}
	defer db.Close()

	logger := slog.New(logging.NewMultiHandler(
		consoleHandler,
		logging.NewSQLiteHandler(db, cnfg.Logging.GetDbLevel(), cnfg.Logging.GetDbAttrsFormat())))
	slog.SetDefault(logger)

	// Now we can use the logger to log database operations into the database itself
	db.SetLogger(logger.With("module", "database"))

	config.Watch(logger.With("module", "config"))

	consumption := elenia.New(cnfg.Elenia.Username, cnfg.Elenia.Password)
	prices := vattenfall.New(cnfg.Vattenfall.GetVatRate())

	refresher := task.NewRefresher(
		logger.With("module", "refresh"),
		db,
		consumption,
		prices,
		keyer,
		cnfg)

	tasks := task.NewTasks(db, refresher, cnfg)
	if isDevMode() {
		logger.Info("dev mode, skipping task scheduling")
	} else {
		tasks.Run()
		defer tasks.Stop()
	}

	// The artifact is the source of truth. When it is missing the service
	// has never run here, so fetch and combine right away instead of
	// waiting for the nightly schedule.
	if _, err := os.Stat(cnfg.Combine.GetOutputPath()); os.IsNotExist(err) && !isDevMode() {
		go func() {
			runCtx, runCancel := context.WithTimeout(ctx, 5*time.Minute)
			defer runCancel()
			if _, err := refresher.Run(runCtx); err != nil {
				logger.Error("initial refresh failed", slog.Any("error", err))
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case <-ctx.Done():
			logger.Info("main context done")
		case sig := <-sigCh:
			logger.Info("received signal", slog.Any("signal", sig))
			cancel()
		}
	}()

	server := www.StartServer(db, refresher, cnfg)
	refresher.OnComplete = server.NotifyRefresh
	server.Run(ctx)
}

func isDevMode() bool {
	return strings.EqualFold(os.Getenv("APP_ENV"), "development")
}

func exitWithError(logger *slog.Logger, err error) {
	if err != nil {
		logger.Error("application shutting down with error", slog.Any("error", err))
	}

	time.Sleep(2 * time.Second)
	os.Exit(1)
}
