package common

import (
	"github.com/sirupsen/logrus"
)

// SetupLogger wires the level of the standard logrus logger from the logging
// flags and the cluster configuration, flags winning over the file.
func SetupLogger(verbose bool, errorsOnly bool) *logrus.Logger {
	logger := logrus.StandardLogger()

	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else if errorsOnly {
		logger.SetLevel(logrus.ErrorLevel)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	return logger
}
