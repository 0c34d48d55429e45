/* ippstream - resumable IPP message codec
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * Logger tests
 */

package ippstream

import (
	"bytes"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

// TestLoggerLevels tests filtering of log lines by level
func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&buf, LogError|LogInfo)

	log.Begin().
		Error("error %d", 1).
		Info("info %d", 2).
		Debug('>', "debug %d", 3).
		Trace(LogTraceIPP, ' ', "trace %d", 4).
		Commit()

	expected := "! error 1\n  info 2\n"
	if buf.String() != expected {
		t.Errorf("expected %q, present %q", expected, buf.String())
	}

	buf.Reset()
	log.Debug('>', "invisible")
	if buf.Len() != 0 {
		t.Errorf("debug line written: %q", buf.String())
	}

	var nilLog *Logger
	if nilLog.Enabled(LogAll) {
		t.Errorf("nil logger is enabled")
	}
	nilLog.Error("nowhere")
}

// TestLoggerWrite tests LogMessage as io.Writer
func TestLoggerWrite(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&buf, LogAll)

	msg := log.Begin()
	msg.Info("header")
	msg.Write([]byte("line 1\nline"))
	msg.Write([]byte(" 2\n\nline 3"))
	msg.Commit()

	expected := "  header\n  line 1\n  line 2\n  \n  line 3\n"
	if buf.String() != expected {
		t.Errorf("expected %q, present %q", expected, buf.String())
	}

	// Rejected message is not written
	buf.Reset()
	log.Begin().Error("rejected").Reject()
	if buf.Len() != 0 {
		t.Errorf("rejected message written: %q", buf.String())
	}
}

// TestLoggerDump tests hex dumps
func TestLoggerDump(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&buf, LogAll)

	data := []byte("IPP\x01\x02\x03\x04\x05 message dump!!")
	log.Dump(data, "dump of %d bytes:", len(data))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, present:\n%s", buf.String())
	}

	expected := []string{
		"  dump of 23 bytes:",
		"  0000: 49 50 50 01:02 03 04 05:20 6d 65 73:73 61 67 65: IPP..... message",
		"  0010: 20 64 75 6d:70 21 21 " + strings.Repeat(" ", 27) + "  dump!!",
	}

	for i := range expected {
		if lines[i] != expected[i] {
			t.Errorf("line %d:\nexpected %q\npresent  %q",
				i, expected[i], lines[i])
		}
	}

	// Dump is suppressed without LogDebug
	buf.Reset()
	log = NewLogger(&buf, LogError|LogInfo)
	log.Dump(data, "dump")
	if buf.Len() != 0 {
		t.Errorf("dump written: %q", buf.String())
	}
}

// TestLoggerFile tests logging into the file with rotation
func TestLoggerFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "log", "ippstream.log")

	log := NewFileLogger(path, LogAll, 16, 2)
	defer log.Close()

	log.Info("first message, long enough to rotate")
	log.Info("second message")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("%s", err)
	}

	prefix := regexp.MustCompile(`^\d\d-\d\d-\d{4} \d\d:\d\d:\d\d:   `)
	if !prefix.Match(data) || !strings.HasSuffix(string(data), "second message\n") {
		t.Errorf("bad log file content: %q", data)
	}

	if strings.Contains(string(data), "first") {
		t.Errorf("log file is not rotated: %q", data)
	}

	// Rotated file keeps the first message
	file, err := os.Open(path + ".0.gz")
	if err != nil {
		t.Fatalf("%s", err)
	}
	defer file.Close()

	r, err := gzip.NewReader(file)
	if err != nil {
		t.Fatalf("%s", err)
	}

	backup, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("%s", err)
	}

	if !strings.HasSuffix(string(backup), "first message, long enough to rotate\n") {
		t.Errorf("bad backup content: %q", backup)
	}
}
