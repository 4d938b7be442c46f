// Copyright (c) 2023 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package logger configures the seelog logger used by every package of the
// driver.
package logger

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cihub/seelog"
)

const (
	LogLevelEnvVar  = "ATADEV_LOGLEVEL"
	defaultLogLevel = "info"
	formatterName   = "AtadevLogfmt"
	outputFmt       = "logfmt"
	rollCount       = 24
)

// logLevels maps accepted level names to seelog levels.
var logLevels = map[string]string{
	"trace": "trace",
	"debug": "debug",
	"info":  "info",
	"warn":  "warn",
	"error": "error",
	"crit":  "critical",
	"none":  "off",
}

type logConfig struct {
	level        string
	logfile      string
	outputFormat string
	maxRollCount int
	lock         sync.Mutex
}

var (
	config       *logConfig
	registerOnce sync.Once
)

func init() {
	config = &logConfig{
		level:        defaultLogLevel,
		outputFormat: outputFmt,
		maxRollCount: rollCount,
	}
}

// Setup installs the logger. Without a log file, messages go to stderr so
// that block data written to stdout stays clean. The level set in
// ATADEV_LOGLEVEL wins over level.
func Setup(level, logfile string) error {
	if l := os.Getenv(LogLevelEnvVar); l != "" {
		level = l
	}
	parsed, ok := logLevels[strings.ToLower(level)]
	if !ok {
		return fmt.Errorf("unknown log level %q", level)
	}
	registerOnce.Do(func() {
		if err := seelog.RegisterCustomFormatter(formatterName, logfmtFormatter); err != nil {
			seelog.Error(err)
		}
	})

	config.lock.Lock()
	defer config.lock.Unlock()
	config.level = parsed
	config.logfile = logfile
	return reloadConfig()
}

// Flush writes out buffered messages. Call it before the program exits.
func Flush() {
	seelog.Flush()
}

func logfmtFormatter(params string) seelog.FormatterFunc {
	return func(message string, level seelog.LogLevel, context seelog.LogContextInterface) interface{} {
		return fmt.Sprintf(`level=%s time=%s msg=%q
`, level.String(), context.CallTime().UTC().Format(time.RFC3339), message)
	}
}

func reloadConfig() error {
	var (
		logger seelog.LoggerInterface
		err    error
	)
	switch {
	case config.level == "off":
		// Writer backed loggers need a minimum level below the maximum.
		logger = seelog.Disabled
	case config.logfile == "":
		lvl, _ := seelog.LogLevelFromString(config.level)
		logger, err = seelog.LoggerFromWriterWithMinLevelAndFormat(os.Stderr, lvl, "%"+formatterName)
	default:
		logger, err = seelog.LoggerFromConfigAsString(seelogConfig())
	}
	if err != nil {
		return fmt.Errorf("failed to configure logger: %v", err)
	}
	return seelog.ReplaceLogger(logger)
}

func seelogConfig() string {
	return `
<seelog type="asyncloop" minlevel="` + config.level + `">
	<outputs formatid="` + config.outputFormat + `">
		<rollingfile filename="` + config.logfile + `" type="date"
		 datepattern="2006-01-02-15" archivetype="none" maxrolls="` + strconv.Itoa(config.maxRollCount) + `" />
	</outputs>
	<formats>
		<format id="logfmt" format="%` + formatterName + `" />
	</formats>
</seelog>`
}
