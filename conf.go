/* ippstream - resumable IPP message codec
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * Codec configuration
 */

package ippstream

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"
)

const (
	// ConfFileName defines a name of ippstream configuration file
	ConfFileName = "ippstream.conf"
)

// Config represents the codec configuration
type Config struct {
	MaxDepth          int      // Collections nesting limit
	Strict            bool     // Reject values under the empty-value tags
	LogLevel          LogLevel // Log levels mask
	LogFile           string   // Log file path, "" for console
	LogMaxFileSize    int64    // Maximum log file size
	LogMaxBackupFiles uint     // Count of files preserved during rotation
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		MaxDepth:          DefaultMaxDepth,
		LogLevel:          LogError | LogInfo,
		LogMaxFileSize:    256 * 1024,
		LogMaxBackupFiles: 5,
	}
}

// LoadConfig loads configuration from the file. Missing file
// is not an error, the default configuration is returned
// in this case. Unknown sections and keys are ignored
func LoadConfig(path string) (*Config, error) {
	conf := DefaultConfig()

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return conf, nil
		}
		return nil, fmt.Errorf("conf: %s", err)
	}

	inifile, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("conf: %s", err)
	}

	err = conf.load(inifile)
	if err != nil {
		return nil, fmt.Errorf("%s:%s", path, err)
	}

	return conf, nil
}

// load extracts options from the parsed file
func (conf *Config) load(inifile *ini.File) error {
	var err error

	if section, _ := inifile.GetSection("codec"); section != nil {
		for _, key := range section.Keys() {
			switch key.Name() {
			case "max-depth":
				var depth uint
				err = confLoadUintKeyRange(&depth, key, 1, 1024)
				if err == nil {
					conf.MaxDepth = int(depth)
				}
			case "compat-empty-values":
				var compat bool
				err = confLoadBinaryKey(&compat, key, "disable", "enable")
				conf.Strict = !compat
			}

			if err != nil {
				return err
			}
		}
	}

	if section, _ := inifile.GetSection("logging"); section != nil {
		for _, key := range section.Keys() {
			switch key.Name() {
			case "log-level":
				err = confLoadLogLevelKey(&conf.LogLevel, key)
			case "log-file":
				conf.LogFile = strings.TrimSpace(key.String())
			case "max-file-size":
				err = confLoadSizeKey(&conf.LogMaxFileSize, key)
			case "max-backup-files":
				err = confLoadUintKey(&conf.LogMaxBackupFiles, key)
			}

			if err != nil {
				return err
			}
		}
	}

	return nil
}

// NewLogger creates a Logger as configured. Without the log file,
// messages go to os.Stderr
func (conf *Config) NewLogger() *Logger {
	if conf.LogFile == "" {
		return NewLogger(os.Stderr, conf.LogLevel)
	}

	return NewFileLogger(conf.LogFile, conf.LogLevel,
		conf.LogMaxFileSize, conf.LogMaxBackupFiles)
}

// NewDecoder creates a Decoder as configured
func (conf *Config) NewDecoder(log *Logger) *Decoder {
	return &Decoder{
		MaxDepth: conf.MaxDepth,
		Strict:   conf.Strict,
		Log:      log,
	}
}

// NewEncoder creates an Encoder as configured
func (conf *Config) NewEncoder(log *Logger) *Encoder {
	return &Encoder{
		MaxDepth: conf.MaxDepth,
		Log:      log,
	}
}

// Create "bad value" error
func confBadValue(key *ini.Key, format string, args ...interface{}) error {
	return fmt.Errorf(key.Name()+": "+format, args...)
}

// Load the binary key
func confLoadBinaryKey(out *bool, key *ini.Key, vFalse, vTrue string) error {
	switch key.String() {
	case vFalse:
		*out = false
		return nil
	case vTrue:
		*out = true
		return nil
	default:
		return confBadValue(key, "must be %s or %s", vFalse, vTrue)
	}
}

// Load LogLevel key
func confLoadLogLevelKey(out *LogLevel, key *ini.Key) error {
	var mask LogLevel
	for _, s := range strings.Split(key.String(), ",") {
		s = strings.TrimSpace(s)
		switch s {
		case "":
		case "error":
			mask |= LogError
		case "info":
			mask |= LogInfo | LogError
		case "debug":
			mask |= LogDebug | LogInfo | LogError
		case "trace-ipp":
			mask |= LogTraceIPP | LogDebug | LogInfo | LogError
		case "all", "trace-all":
			mask |= LogAll
		default:
			return confBadValue(key, "invalid log level %q", s)
		}
	}

	*out = mask
	return nil
}

// Load size key
func confLoadSizeKey(out *int64, key *ini.Key) error {
	value := key.String()
	units := uint64(1)

	if l := len(value); l > 0 {
		switch value[l-1] {
		case 'k', 'K':
			units = 1024
		case 'm', 'M':
			units = 1024 * 1024
		}

		if units != 1 {
			value = value[:l-1]
		}
	}

	sz, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return confBadValue(key, "%q: invalid size", value)
	}

	if sz > uint64(math.MaxInt64/units) {
		return confBadValue(key, "size too large")
	}

	*out = int64(sz * units)
	return nil
}

// Load unsigned integer key
func confLoadUintKey(out *uint, key *ini.Key) error {
	num, err := strconv.ParseUint(key.String(), 10, 0)
	if err != nil {
		return confBadValue(key, "%q: invalid number", key.String())
	}

	*out = uint(num)
	return nil
}

// Load unsigned integer key within the range
func confLoadUintKeyRange(out *uint, key *ini.Key, min, max uint) error {
	var val uint
	err := confLoadUintKey(&val, key)
	if err == nil && (val < min || val > max) {
		err = confBadValue(key, "must be in range %d...%d", min, max)
	}

	if err == nil {
		*out = val
	}

	return err
}
