package config

import "github.com/sirupsen/logrus"

var log = InitLogger()

func InitLogger() *logrus.Logger {
	var logger = logrus.New()

	logger.SetFormatter(&logrus.TextFormatter{
		DisableColors: false,
		FullTimestamp: true,
	})

	return logger
}
