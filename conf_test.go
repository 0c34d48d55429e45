/* ippstream - resumable IPP message codec
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * Configuration tests
 */

package ippstream

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeConf writes configuration text into a temporary file
// and returns its path
func writeConf(t *testing.T, text string) string {
	path := filepath.Join(t.TempDir(), ConfFileName)
	err := os.WriteFile(path, []byte(text), 0644)
	if err != nil {
		t.Fatalf("%s", err)
	}
	return path
}

// TestLoadConfigMissing tests that missing file yields defaults
func TestLoadConfigMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.conf")

	conf, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("%s", err)
	}

	if *conf != *DefaultConfig() {
		t.Errorf("expected defaults, present %+v", conf)
	}
}

// TestLoadConfig tests loading of the shipped configuration file
func TestLoadConfig(t *testing.T) {
	conf, err := LoadConfig(filepath.Join("testdata", ConfFileName))
	if err != nil {
		t.Fatalf("%s", err)
	}

	expected := Config{
		MaxDepth:          32,
		LogLevel:          LogError | LogInfo,
		LogMaxFileSize:    256 * 1024,
		LogMaxBackupFiles: 5,
	}

	if *conf != expected {
		t.Errorf("expected %+v, present %+v", expected, *conf)
	}
}

// TestLoadConfigValues tests parsing of individual options
func TestLoadConfigValues(t *testing.T) {
	tests := []struct {
		text  string
		check func(*Config) bool
	}{
		{
			"[codec]\nmax-depth = 1\n",
			func(c *Config) bool { return c.MaxDepth == 1 },
		},
		{
			"[codec]\ncompat-empty-values = disable\n",
			func(c *Config) bool { return c.Strict },
		},
		{
			"[logging]\nlog-level = trace-ipp\n",
			func(c *Config) bool { return c.LogLevel == LogAll },
		},
		{
			"[logging]\nlog-level = error\n",
			func(c *Config) bool { return c.LogLevel == LogError },
		},
		{
			"[logging]\nlog-level = debug\n",
			func(c *Config) bool {
				return c.LogLevel == LogError|LogInfo|LogDebug
			},
		},
		{
			"[logging]\nlog-file = /var/log/ippstream.log\n",
			func(c *Config) bool { return c.LogFile == "/var/log/ippstream.log" },
		},
		{
			"[logging]\nmax-file-size = 2M\nmax-backup-files = 0\n",
			func(c *Config) bool {
				return c.LogMaxFileSize == 2*1024*1024 &&
					c.LogMaxBackupFiles == 0
			},
		},
		{
			"[logging]\nmax-file-size = 1000\n",
			func(c *Config) bool { return c.LogMaxFileSize == 1000 },
		},
		{
			"[other]\nmax-depth = 5\n[codec]\nunknown = 1\n",
			func(c *Config) bool { return c.MaxDepth == DefaultMaxDepth },
		},
	}

	for _, test := range tests {
		conf, err := LoadConfig(writeConf(t, test.text))
		if err != nil {
			t.Errorf("%q: %s", test.text, err)
			continue
		}

		if !test.check(conf) {
			t.Errorf("%q: bad result %+v", test.text, *conf)
		}
	}
}

// TestLoadConfigErrors tests reporting of invalid options
func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		text string
		err  string
	}{
		{"[codec]\nmax-depth = 0\n", "max-depth: must be in range 1...1024"},
		{"[codec]\nmax-depth = 2000\n", "max-depth: must be in range 1...1024"},
		{"[codec]\nmax-depth = deep\n", `max-depth: "deep": invalid number`},
		{"[codec]\ncompat-empty-values = yes\n",
			"compat-empty-values: must be disable or enable"},
		{"[logging]\nlog-level = error,verbose\n",
			`log-level: invalid log level "verbose"`},
		{"[logging]\nmax-file-size = 10G\n", `max-file-size: "10G": invalid size`},
		{"[logging]\nmax-backup-files = -1\n",
			`max-backup-files: "-1": invalid number`},
	}

	for _, test := range tests {
		path := writeConf(t, test.text)

		_, err := LoadConfig(path)
		if err == nil {
			t.Errorf("%q: error expected", test.text)
			continue
		}

		expected := path + ":" + test.err
		if err.Error() != expected {
			t.Errorf("%q:\nexpected %s\npresent  %s",
				test.text, expected, err)
		}
	}

	// Syntax error
	_, err := LoadConfig(writeConf(t, "[codec\n"))
	if err == nil || !strings.HasPrefix(err.Error(), "conf: ") {
		t.Errorf("syntax error: bad error %v", err)
	}
}

// TestConfigCodec tests creation of Decoder and Encoder
func TestConfigCodec(t *testing.T) {
	conf := DefaultConfig()
	conf.MaxDepth = 1
	conf.Strict = true

	log := conf.NewLogger()
	dec := conf.NewDecoder(log)
	enc := conf.NewEncoder(log)

	if dec.MaxDepth != 1 || !dec.Strict || dec.Log != log {
		t.Errorf("bad decoder %+v", dec)
	}

	if enc.MaxDepth != 1 || enc.Log != log {
		t.Errorf("bad encoder %+v", enc)
	}

	// Nesting limit is in effect
	_, err := dec.Decode(bytes.NewReader(mediaCol()), true, NewMessage())
	if err == nil {
		t.Errorf("decode: depth limit not applied")
	}

	_, err = enc.Encode(io.Discard, true, newMediaCol())
	if err == nil {
		t.Errorf("encode: depth limit not applied")
	}
}
