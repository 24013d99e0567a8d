package autoblacklist

import (
	"os"
	"strconv"
	"strings"

	"github.com/raykavin/autoblacklist/pkg/logger"
	"github.com/raykavin/autoblacklist/pkg/logger/logrus"
	"github.com/raykavin/autoblacklist/pkg/logger/zerolog"
)

const (
	// Default configuration values
	defaultLogLevel      = "info"
	defaultLogTimeFormat = "2006-01-02 15:04:05"
	defaultLogColored    = "true"
	defaultLogJSON       = "false"
	defaultLogBackend    = "zerolog"
)

// Environment variable names
const (
	envLogLevel      = "AUTOBLACKLIST_LOG_LEVEL"
	envLogTimeFormat = "AUTOBLACKLIST_LOG_TIME_FORMAT"
	envLogColor      = "AUTOBLACKLIST_LOG_COLOR"
	envLogJSON       = "AUTOBLACKLIST_LOG_JSON"
	envLogBackend    = "AUTOBLACKLIST_LOG_BACKEND"
)

func init() {
	log, err := initLogger()
	if err != nil {
		panic(err)
	}

	DefaultLog = log
}

// initLogger creates a new logger instance configured from environment variables
func initLogger() (logger.Logger, error) {
	logLevel := getEnvWithDefault(envLogLevel, defaultLogLevel)
	logTimeFormat := getEnvWithDefault(envLogTimeFormat, defaultLogTimeFormat)

	logColored, err := parseBoolEnv(envLogColor, defaultLogColored)
	if err != nil {
		return nil, err
	}

	logJSON, err := parseBoolEnv(envLogJSON, defaultLogJSON)
	if err != nil {
		return nil, err
	}

	if strings.EqualFold(getEnvWithDefault(envLogBackend, defaultLogBackend), "logrus") {
		return logrus.New(logLevel, logTimeFormat, logJSON, nil), nil
	}

	return zerolog.New(zerolog.Options{
		Level:      logLevel,
		TimeFormat: logTimeFormat,
		Colored:    logColored,
		JSON:       logJSON,
	})
}

// getEnvWithDefault returns the value of the environment variable or the default if not set
func getEnvWithDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// parseBoolEnv gets a boolean environment variable with a default value
func parseBoolEnv(key, defaultValue string) (bool, error) {
	value := getEnvWithDefault(key, defaultValue)
	return strconv.ParseBool(value)
}
