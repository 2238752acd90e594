package log

import (
	"os"
	"path/filepath"

	"github.com/creditarchitect/dispatch-app/conf"
	"github.com/sirupsen/logrus"
)

var (
	API     logrus.FieldLogger
	CLI     logrus.FieldLogger
	Mail    logrus.FieldLogger
	Request logrus.FieldLogger
	Tracker logrus.FieldLogger
)

func init() {
	API = Logger(logrus.New(), conf.GetEnv("DISPATCH_ERROR_LOG"),
		"api", conf.GetEnv("ENVIRONMENT"))
	CLI = Logger(logrus.New(), conf.GetEnv("DISPATCH_ERROR_LOG"),
		"cli", conf.GetEnv("ENVIRONMENT"))
	Mail = Logger(logrus.New(), conf.GetEnv("DISPATCH_MAIL_LOG"),
		"api", conf.GetEnv("ENVIRONMENT"))
	Request = Logger(logrus.New(), conf.GetEnv("DISPATCH_REQUEST_LOG"),
		"api", conf.GetEnv("ENVIRONMENT"))
	Tracker = Logger(logrus.New(), conf.GetEnv("DISPATCH_ERROR_LOG"),
		"tracker", conf.GetEnv("ENVIRONMENT"))
}

func Logger(logger *logrus.Logger, outputFile string,
	application, environment string) logrus.FieldLogger {

	if outputFile != "" {
		if file, err := os.OpenFile(filepath.Clean(outputFile), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0640); err == nil {
			logger.SetOutput(file)
		} else {
			logger.Infof("Failed to open output file %s. Will use stderr. %s",
				outputFile, err.Error())
		}
	}

	return logger.WithFields(logrus.Fields{
		"application": application,
		"environment": environment})
}
