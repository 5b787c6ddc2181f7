package config

import (
	"os"

	log "github.com/sirupsen/logrus"
)

func ConfigureLogger(c *Config) {
	log.SetOutput(os.Stdout)
	if c.IsProduction() {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}

	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
}
