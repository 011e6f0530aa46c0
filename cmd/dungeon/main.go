package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/vancomm/dungeon-sweeper/internal/app"
	"github.com/vancomm/dungeon-sweeper/internal/config"
	"github.com/vancomm/dungeon-sweeper/internal/logging"
)

var configPath string

func init() {
	const (
		defaultConfigPath = "/run/config.json"
		usage             = "config file path"
	)
	flag.StringVar(&configPath, "config", defaultConfigPath, usage)
	flag.StringVar(&configPath, "c", defaultConfigPath, usage+" (shorthand)")
}

func main() {
	mainCtx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt, syscall.SIGTERM,
	)
	defer stop()

	flag.Parse()

	c, err := config.Load(configPath)
	if err != nil {
		logrus.Fatalf("unable to load config %s: %s", configPath, err)
	}

	log, err := logging.New(c)
	if err != nil {
		logrus.Fatal("unable to set up logging: ", err)
	}

	log.Info("starting up, mode = ", c.Mode)
	log.WithFields(c.Fields()).Debug("config")

	if err := app.New(c, log).Start(mainCtx); err != nil {
		log.Printf("exit reason: %s\n", err)
		os.Exit(1)
	}
}
