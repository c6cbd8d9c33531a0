package log

//go:generate go run github.com/abice/go-enum -f=$GOFILE --marshal --names

import (
	"io"

	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

// FormatType format for logging ENUM(
// text // logging as text
// json // JSON format
// )
type FormatType int

// Level log level ENUM(
// info
// trace
// debug
// warn
// error
// fatal
// )
type Level int

// Config controls level and output format of the global logger
type Config struct {
	Level     Level      `yaml:"level" default:"info"`
	Format    FormatType `yaml:"format" default:"text"`
	Timestamp bool       `yaml:"timestamp" default:"true"`
}

// nolint:gochecknoglobals
var logger *logrus.Logger

// nolint:gochecknoinits
func init() {
	logger = logrus.New()

	ConfigureLogger(Config{
		Level:     LevelInfo,
		Format:    FormatTypeText,
		Timestamp: true,
	})
}

// Log returns the global logger
func Log() *logrus.Logger {
	return logger
}

// PrefixedLog return the global logger with prefix
func PrefixedLog(prefix string) *logrus.Entry {
	return logger.WithField("prefix", prefix)
}

// ConfigureLogger applies configuration to the global logger.
// An unknown level keeps the current one.
func ConfigureLogger(lc Config) {
	if level, err := logrus.ParseLevel(lc.Level.String()); err != nil {
		logger.Warnf("invalid log level %s, keeping %s: %v", lc.Level, logger.GetLevel(), err)
	} else {
		logger.SetLevel(level)
	}

	switch lc.Format {
	case FormatTypeJson:
		logger.SetFormatter(&logrus.JSONFormatter{DisableTimestamp: !lc.Timestamp})

	default:
		logFormatter := &prefixed.TextFormatter{
			TimestampFormat:  "2006-01-02 15:04:05",
			FullTimestamp:    true,
			ForceFormatting:  true,
			ForceColors:      false,
			QuoteEmptyFields: true,
			DisableTimestamp: !lc.Timestamp,
		}

		logFormatter.SetColorScheme(&prefixed.ColorScheme{
			PrefixStyle:    "blue+b",
			TimestampStyle: "white+h",
		})

		logger.SetFormatter(logFormatter)
	}
}

// Silence disables the logger output
func Silence() {
	logger.Out = io.Discard
}
