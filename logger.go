/* ippstream - resumable IPP message codec
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * Logging
 */

package ippstream

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/algorand/go-deadlock"
)

var (
	logMessagePool = sync.Pool{New: func() interface{} { return &LogMessage{} }}
	logBufferPool  = sync.Pool{New: func() interface{} { return &bytes.Buffer{} }}
)

// LogLevel enumerates possible log levels. Levels are bits,
// so a set of levels may be enabled at once
type LogLevel int

const (
	LogError LogLevel = 1 << iota
	LogInfo
	LogDebug
	LogTraceIPP

	LogAll = LogError | LogInfo | LogDebug | LogTraceIPP
)

// Logger implements logging facilities
type Logger struct {
	lock       deadlock.Mutex // Write lock
	levels     LogLevel       // Enabled levels
	path       string         // Path to log file
	time       bytes.Buffer   // Time prefix buffer
	out        io.Writer      // Output, if not file
	file       *os.File       // Output file
	maxSize    int64          // Rotate file after this size
	maxBackups uint           // Count of backup files
}

// NewLogger creates a new logger that writes to out
func NewLogger(out io.Writer, levels LogLevel) *Logger {
	return &Logger{
		levels: levels,
		out:    out,
	}
}

// NewFileLogger creates a new logger that writes to the file.
// The file is opened on demand and rotated when its size
// exceeds maxSize, keeping up to maxBackups gzipped backups
func NewFileLogger(path string, levels LogLevel,
	maxSize int64, maxBackups uint) *Logger {

	return &Logger{
		levels:     levels,
		path:       path,
		maxSize:    maxSize,
		maxBackups: maxBackups,
	}
}

// Close the logger
func (l *Logger) Close() {
	l.lock.Lock()
	defer l.lock.Unlock()

	if l.file != nil {
		l.file.Close()
		l.file = nil
	}
}

// Enabled reports whether any of levels is enabled
func (l *Logger) Enabled(levels LogLevel) bool {
	return l != nil && l.levels&levels != 0
}

// Begin new log message
func (l *Logger) Begin() *LogMessage {
	msg := logMessagePool.Get().(*LogMessage)
	msg.logger = l
	return msg
}

// Debug writes a LogDebug message
func (l *Logger) Debug(prefix byte, format string, args ...interface{}) {
	l.Begin().Debug(prefix, format, args...).Commit()
}

// Info writes a LogInfo message
func (l *Logger) Info(format string, args ...interface{}) {
	l.Begin().Info(format, args...).Commit()
}

// Error writes a LogError message
func (l *Logger) Error(format string, args ...interface{}) {
	l.Begin().Error(format, args...).Commit()
}

// Dump writes HEX dump with optional title. If title is not "",
// it is formatted, as fmt.Printf does, and prepended to the dump
func (l *Logger) Dump(data []byte, title string, args ...interface{}) {
	l.Begin().Dump(data, title, args...).Commit()
}

// Format a time prefix
func (l *Logger) fmtTime() {
	l.time.Reset()

	if l.path != "" {
		now := time.Now()

		year, month, day := now.Date()
		fmt.Fprintf(&l.time, "%2.2d-%2.2d-%4.4d ", day, month, year)

		hour, min, sec := now.Clock()
		fmt.Fprintf(&l.time, "%2.2d:%2.2d:%2.2d", hour, min, sec)

		l.time.WriteString(": ")
	}
}

// output returns the log destination, opening the log file on demand
func (l *Logger) output() io.Writer {
	if l.path == "" {
		return l.out
	}

	if l.file == nil {
		os.MkdirAll(filepath.Dir(l.path), 0755)
		l.file, _ = os.OpenFile(l.path,
			os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0644)
	}

	if l.file == nil {
		return nil
	}

	l.rotate()

	return l.file
}

// Handle log rotation
func (l *Logger) rotate() {
	// Do we need to rotate?
	stat, err := l.file.Stat()
	if err != nil || l.maxSize <= 0 || stat.Size() <= l.maxSize {
		return
	}

	// Perform rotation
	prevpath := ""
	for i := int(l.maxBackups); i >= 0; i-- {
		nextpath := l.path
		if i > 0 {
			nextpath += fmt.Sprintf(".%d.gz", i-1)
		}

		switch i {
		case int(l.maxBackups):
			os.Remove(nextpath)
		case 0:
			err := l.gzip(nextpath, prevpath)
			if err == nil {
				l.file.Truncate(0)
			}
		default:
			os.Rename(nextpath, prevpath)
		}

		prevpath = nextpath
	}
}

// gzip the log file
func (l *Logger) gzip(ipath, opath string) error {
	// Open input file
	ifile, err := os.Open(ipath)
	if err != nil {
		return err
	}

	defer ifile.Close()

	// Open output file
	ofile, err := os.OpenFile(opath, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0644)
	if err != nil {
		return err
	}

	// gzip ifile->ofile
	w := gzip.NewWriter(ofile)
	_, err = io.Copy(w, ifile)
	err2 := w.Close()
	err3 := ofile.Close()

	switch {
	case err == nil && err2 != nil:
		err = err2
	case err == nil && err3 != nil:
		err = err3
	}

	// Cleanup and exit
	if err != nil {
		os.Remove(opath)
	}

	return err
}

// LogMessage represents a single (possible multi line) log
// message, which will appear in the output log atomically,
// and will not be interrupted in the middle by other log activity
type LogMessage struct {
	logger *Logger         // Underlying logger
	lines  []*bytes.Buffer // One buffer per line
}

// add formats a next line of log message, with level and prefix char.
// Lines of disabled levels are dropped
func (msg *LogMessage) add(level LogLevel, prefix byte,
	format string, args ...interface{}) *LogMessage {

	if !msg.logger.Enabled(level) {
		return msg
	}

	buf := logBufAlloc()
	buf.Write([]byte{prefix, ' '})
	fmt.Fprintf(buf, format, args...)
	buf.WriteByte('\n')
	msg.lines = append(msg.lines, buf)
	return msg
}

// Debug writes a LogDebug message
func (msg *LogMessage) Debug(prefix byte, format string, args ...interface{}) *LogMessage {
	return msg.add(LogDebug, prefix, format, args...)
}

// Info writes a LogInfo message
func (msg *LogMessage) Info(format string, args ...interface{}) *LogMessage {
	return msg.add(LogInfo, ' ', format, args...)
}

// Error writes a LogError message
func (msg *LogMessage) Error(format string, args ...interface{}) *LogMessage {
	return msg.add(LogError, '!', format, args...)
}

// Trace writes a message of the trace level
func (msg *LogMessage) Trace(level LogLevel, prefix byte,
	format string, args ...interface{}) *LogMessage {
	return msg.add(level, prefix, format, args...)
}

// Write implements io.Writer interface. Text is automatically
// split into lines
func (msg *LogMessage) Write(text []byte) (n int, err error) {
	n, err = len(text), nil

	for len(text) > 0 {
		// Fetch next line
		var line []byte

		if l := bytes.IndexByte(text, '\n'); l >= 0 {
			l++
			line = text[:l]
			text = text[l:]
		} else {
			line = text
			text = nil
		}

		// Save the line
		if cnt := len(msg.lines); cnt > 0 && !logBufTerminated(msg.lines[cnt-1]) {
			buf := msg.lines[cnt-1]
			if buf.Len() == 0 {
				buf.Write([]byte("  "))
			}
			buf.Write(line)
		} else {
			buf := logBufAlloc()
			if len(line) != 0 {
				buf.Write([]byte("  "))
				buf.Write(line)
			}
			msg.lines = append(msg.lines, buf)
		}
	}

	return
}

// Dump writes HEX dump with optional title. If title is not "",
// it is formatted, as fmt.Printf does, and prepended to the dump
func (msg *LogMessage) Dump(data []byte, title string, args ...interface{}) *LogMessage {
	if !msg.logger.Enabled(LogDebug) {
		return msg
	}

	if title != "" {
		msg.Debug(' ', title, args...)
	}

	hex := logBufAlloc()
	chr := logBufAlloc()

	defer logBufFree(hex)
	defer logBufFree(chr)

	off := 0

	for len(data) > 0 {
		hex.Reset()
		chr.Reset()

		sz := len(data)
		if sz > 16 {
			sz = 16
		}

		i := 0
		for ; i < sz; i++ {
			c := data[i]
			fmt.Fprintf(hex, "%2.2x", data[i])
			if i%4 == 3 {
				hex.Write([]byte(":"))
			} else {
				hex.Write([]byte(" "))
			}

			if 0x20 <= c && c < 0x80 {
				chr.WriteByte(c)
			} else {
				chr.WriteByte('.')
			}
		}

		for ; i < 16; i++ {
			hex.WriteString("   ")
		}

		msg.Debug(' ', "%4.4x: %s %s", off, hex, chr)

		off += sz
		data = data[sz:]
	}

	return msg
}

// Commit message to the log
func (msg *LogMessage) Commit() {
	// Don't forget to free the message
	defer msg.free()

	// Ignore empty messages
	if len(msg.lines) == 0 || msg.logger == nil {
		return
	}

	// Lock the logger
	l := msg.logger
	l.lock.Lock()
	defer l.lock.Unlock()

	out := l.output()
	if out == nil {
		return
	}

	// Send message content to the logger
	l.fmtTime()
	for _, line := range msg.lines {
		if !logBufTerminated(line) {
			line.WriteByte('\n')
		}
		out.Write(l.time.Bytes())
		out.Write(line.Bytes())
	}
}

// Reject the message
func (msg *LogMessage) Reject() {
	msg.free()
}

// Return message to the logMessagePool
func (msg *LogMessage) free() {
	for _, l := range msg.lines {
		logBufFree(l)
	}

	// Reset the message and put it to the pool
	if len(msg.lines) < 16 {
		msg.lines = msg.lines[:0] // Keep memory, reset content
	} else {
		msg.lines = nil
	}

	msg.logger = nil

	// Put the message
	logMessagePool.Put(msg)
}

// Check if line buffer is '\n'-terminated
func logBufTerminated(buf *bytes.Buffer) bool {
	if l := buf.Len(); l > 0 {
		return buf.Bytes()[l-1] == '\n'
	}
	return false
}

// Allocate a buffer
func logBufAlloc() *bytes.Buffer {
	return logBufferPool.Get().(*bytes.Buffer)
}

// Free a buffer
func logBufFree(buf *bytes.Buffer) {
	if buf.Cap() <= 256 {
		buf.Reset()
		logBufferPool.Put(buf)
	}
}
