package main

import (
	"flag"

	"github.com/sirupsen/logrus"

	"github.com/vancomm/dungeon-sweeper/internal/config"
	"github.com/vancomm/dungeon-sweeper/internal/database"
	"github.com/vancomm/dungeon-sweeper/internal/logging"
)

func main() {
	configPath := flag.String("config", "/run/config.json", "config file path")
	down := flag.Bool("down", false, "roll back every migration")
	flag.Parse()

	c, err := config.Load(*configPath)
	if err != nil {
		logrus.Fatalf("unable to load config %s: %s", *configPath, err)
	}
	log, err := logging.New(c)
	if err != nil {
		logrus.Fatal("unable to set up logging: ", err)
	}

	if *down {
		if err := database.Rollback(c.Postgres.URL(), database.Migrations); err != nil {
			log.WithError(err).Fatal("rollback failed")
		}
		log.Info("rollback successful")
		return
	}

	migrator, err := database.Migrate(c.Postgres.URL(), database.Migrations)
	if err != nil {
		log.WithError(err).Fatal("failed to migrate")
	}
	version, dirty, err := migrator.Version()
	if err != nil {
		log.WithError(err).Error("failed to check migration version")
		return
	}
	log.WithFields(logrus.Fields{
		"version": version,
		"dirty":   dirty,
	}).Info("migration successful")
}
