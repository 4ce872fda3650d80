package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hbomb79/Grabber/internal"
	"github.com/hbomb79/Grabber/pkg/logger"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

var log = logger.Get("Main")

// main is the entry point to Grabber. Configuration is read from the
// environment (optionally seeded from a .env file in the working
// directory), or from the YAML file given by the -config flag.
func main() {
	var config internal.GrabberConfig
	configPath := flag.String("config", "", "Path to a YAML configuration file. Environment variables override values in the file")
	flag.Usage = cleanenv.FUsage(flag.CommandLine.Output(), &config, nil, flag.Usage)
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Emit(logger.DEBUG, "No .env file loaded: %v\n", err)
	}

	loaded, err := internal.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logger.SetMinLoggingLevel(logger.LevelFromString(loaded.LogLevel).Level())

	grabber, err := internal.New(*loaded)
	if err != nil {
		log.Emit(logger.FATAL, "Failed to initialise Grabber: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := grabber.Run(ctx); err != nil {
		log.Emit(logger.FATAL, "Grabber exited with error: %v\n", err)
		os.Exit(1)
	}
}
