package cmd

import (
	"errors"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"
	"grader.dev/pkg/grader/internal/adapter"
	m "grader.dev/pkg/grader/internal/model"
)

const (
	configVersionKey     = "version"
	currentConfigVersion = 1

	configBaseName   = "grader"
	configFileName   = configBaseName + ".yaml"
	configFolderPath = "."

	testConfigFlagName       = "test-config"
	runParallelFlagName      = "parallel"
	runTimeoutFlagName       = "timeout"
	runSaveFlagName          = "save"
	formatFlagName           = "format"
	feedbackTemplateFlagName = "feedback-template"
	errorTemplateFlagName    = "error-template"
	noDefaultCSSFlagName     = "no-default-css"
	viewReportFlagName       = "report"
	logFileFlagName          = "log-file"
	verboseFlagName          = "verbose"

	testConfigKey        = "test_config"
	runParallelConfigKey = "run.parallel"
	runTimeoutKey        = "run.timeout"
	runSaveKey           = "run.save"
	renderFormatKey      = "render.format"
	feedbackTemplateKey  = "render.feedback_template"
	errorTemplateKey     = "render.error_template"
	noDefaultCSSKey      = "render.no_default_css"
	viewReportKey        = "view.report"

	defaultTestConfig   = "test_config.yaml"
	defaultRunParallel  = 1
	defaultRunTimeout   = adapter.DefaultGroupTimeout
	defaultRenderFormat = adapter.FormatHTML
	defaultReportPath   = ".grader/report.yaml"

	envPrefix = "GRADER"

	logFilenameKey   = "log.filename"
	logLevelKey      = "log.level"
	logVerboseKey    = "log.verbose"
	logMaxSizeKey    = "log.max_size"
	logMaxBackupsKey = "log.max_backups"
	logMaxAgeKey     = "log.max_age"
	logCompressKey   = "log.compress"

	defaultLogFilename   = ".grader.log"
	defaultLogLevel      = int(slog.LevelInfo)
	defaultLogVerbose    = false
	defaultLogMaxSize    = 10
	defaultLogMaxBackups = 3
	defaultLogMaxAge     = 28
	defaultLogCompress   = true
)

var globalLogger *slog.Logger

func init() {
	viper.SetConfigName(configBaseName)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configFolderPath)
	viper.SetConfigFile(filepath.Join(configFolderPath, configFileName))
	viper.AutomaticEnv()
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	viper.SetDefault(configVersionKey, currentConfigVersion)
	viper.SetDefault(testConfigKey, defaultTestConfig)
	viper.SetDefault(runParallelConfigKey, defaultRunParallel)
	viper.SetDefault(runTimeoutKey, defaultRunTimeout)
	viper.SetDefault(runSaveKey, "")
	viper.SetDefault(renderFormatKey, defaultRenderFormat)
	viper.SetDefault(feedbackTemplateKey, "")
	viper.SetDefault(errorTemplateKey, "")
	viper.SetDefault(noDefaultCSSKey, false)
	viper.SetDefault(viewReportKey, defaultReportPath)

	// Logging defaults (used by config/env and as fallbacks for flags).
	viper.SetDefault(logFilenameKey, defaultLogFilename)
	viper.SetDefault(logLevelKey, defaultLogLevel)
	viper.SetDefault(logVerboseKey, defaultLogVerbose)
	viper.SetDefault(logMaxSizeKey, defaultLogMaxSize)
	viper.SetDefault(logMaxBackupsKey, defaultLogMaxBackups)
	viper.SetDefault(logMaxAgeKey, defaultLogMaxAge)
	viper.SetDefault(logCompressKey, defaultLogCompress)

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return
		}

		slog.Warn("failed to read config file", "file", configFileName, "error", err)
	}
}

func parseSlogLevel(value string, defaultLevel slog.Level) slog.Level {
	level := strings.ToLower(strings.TrimSpace(value))
	if level == "" {
		return defaultLevel
	}

	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}

	// Allow numeric slog levels as well (e.g. -4 for debug).
	if n, err := strconv.Atoi(level); err == nil {
		return slog.Level(n)
	}

	return defaultLevel
}

// configureLogger configures the global slog logger.
//
// Logs go to a rotating file so they never mix with the report on stderr or
// the points on stdout. Verbose switches to Debug.
func configureLogger(logPath string, verbose bool) {
	if strings.TrimSpace(logPath) == "" {
		logPath = viper.GetString(logFilenameKey)
	}

	if strings.TrimSpace(logPath) == "" {
		logPath = defaultLogFilename
	}

	var logLevel slog.Level
	if verbose {
		logLevel = slog.LevelDebug
	} else {
		logLevel = parseSlogLevel(viper.GetString(logLevelKey), slog.LevelInfo)
	}

	logWriter := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    viper.GetInt(logMaxSizeKey),
		MaxBackups: viper.GetInt(logMaxBackupsKey),
		MaxAge:     viper.GetInt(logMaxAgeKey),
		Compress:   viper.GetBool(logCompressKey),
	}

	handler := slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		AddSource: true,
		Level:     logLevel,
	})

	globalLogger = slog.New(handler)
	slog.SetDefault(globalLogger)
}

func renderOptions() adapter.RenderOptions {
	return adapter.RenderOptions{
		FeedbackTemplate: m.Path(viper.GetString(feedbackTemplateKey)),
		ErrorTemplate:    m.Path(viper.GetString(errorTemplateKey)),
		NoDefaultCSS:     viper.GetBool(noDefaultCSSKey),
	}
}
