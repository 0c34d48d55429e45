/* ippstream - resumable IPP message codec
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * ippdump: decode and pretty-print IPP messages
 */

package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/OpenPrinting/ippstream"
	"github.com/spf13/pflag"
)

// Message kind, for formatting
const (
	kindAuto     = "auto"
	kindRequest  = "request"
	kindResponse = "response"
)

// params represents the program parameters
type params struct {
	conf     string // Configuration file
	chunk    int    // Chunk size, 0 for blocking decoding
	reencode bool   // Re-encode decoded messages
	kind     string // Message kind
	verbose  bool   // Trace IPP
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "ippdump: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var p params

	flagSet := pflag.NewFlagSet("ippdump", pflag.ContinueOnError)
	flagSet.StringVarP(&p.conf, "conf", "c", ippstream.ConfFileName,
		"configuration file")
	flagSet.IntVarP(&p.chunk, "chunk", "n", 0,
		"decode in non-blocking mode, reading by chunks of this size")
	flagSet.BoolVarP(&p.reencode, "reencode", "r", false,
		"re-encode decoded messages and compare with the input")
	flagSet.StringVarP(&p.kind, "kind", "k", kindAuto,
		"message kind: auto, request or response.\nauto prints the code as a number")
	flagSet.BoolVarP(&p.verbose, "verbose", "v", false,
		"trace decoding and encoding")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			printHelp(flagSet)
			return nil
		}
		return err
	}

	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}

	switch p.kind {
	case kindAuto, kindRequest, kindResponse:
	default:
		return fmt.Errorf("invalid message kind %q", p.kind)
	}

	if p.chunk < 0 {
		return fmt.Errorf("invalid chunk size %d", p.chunk)
	}

	files := flagSet.Args()
	if len(files) == 0 {
		printHelp(flagSet)
		return errors.New("no input files")
	}

	conf, err := ippstream.LoadConfig(p.conf)
	if err != nil {
		return err
	}

	if p.verbose {
		conf.LogLevel |= ippstream.LogTraceIPP | ippstream.LogDebug
	}

	log := conf.NewLogger()
	defer log.Close()

	failed := 0
	for _, file := range files {
		err := dump(conf, log, &p, file)
		if err != nil {
			log.Error("%s: %s", file, err)
			failed++
		}
	}

	if failed != 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(files))
	}

	return nil
}

// dump decodes, prints and optionally re-encodes one file
func dump(conf *ippstream.Config, log *ippstream.Logger,
	p *params, file string) error {

	data, err := os.ReadFile(file)
	if err != nil {
		return err
	}

	m := ippstream.NewMessage()
	defer m.Release()

	dec := conf.NewDecoder(log)
	if p.chunk == 0 {
		_, err = dec.Decode(bytes.NewReader(data), true, m)
	} else {
		err = decodeChunked(dec, data, p.chunk, m)
	}

	if err != nil {
		return err
	}

	f := ippstream.NewFormatter()
	switch p.kind {
	case kindRequest:
		f.FmtRequest(m)
	case kindResponse:
		f.FmtResponse(m)
	default:
		f.FmtMessage(m)
	}

	fmt.Printf("%s:\n", file)
	f.WriteTo(os.Stdout)

	if !p.reencode {
		return nil
	}

	return reencode(conf, log, m, data)
}

// decodeChunked decodes the message in non-blocking mode, feeding
// the decoder by chunks of the specified size
func decodeChunked(dec *ippstream.Decoder, data []byte,
	chunk int, m *ippstream.Message) error {

	src := &chunkReader{data: data, chunk: chunk}
	calls := 0

	for {
		state, err := dec.Decode(src, false, m)
		calls++

		switch {
		case err != nil:
			return err
		case state == ippstream.StateData:
			fmt.Printf("decoded in %d calls\n", calls)
			return nil
		}
	}
}

// reencode encodes the message back and compares the result with
// the original data and with the computed length
func reencode(conf *ippstream.Config, log *ippstream.Logger,
	m *ippstream.Message, data []byte) error {

	var out bytes.Buffer

	m.Rewind()
	enc := conf.NewEncoder(log)
	_, err := enc.Encode(&out, true, m)
	if err != nil {
		return err
	}

	length := m.Length()
	if length != out.Len() {
		return fmt.Errorf("encoded %d bytes, computed length %d",
			out.Len(), length)
	}

	// The input may contain data after the attributes
	if !bytes.HasPrefix(data, out.Bytes()) {
		return errors.New("re-encoded message differs from the input")
	}

	fmt.Printf("re-encoded %d bytes\n", out.Len())

	return nil
}

// chunkReader returns data by chunks, alternating chunks with
// ErrWouldBlock, as a non-blocking connection does
type chunkReader struct {
	data  []byte // Remaining data
	chunk int    // Chunk size
	block bool   // Next read would block
}

// Read implements io.Reader interface
func (r *chunkReader) Read(buf []byte) (int, error) {
	if r.block {
		r.block = false
		return 0, ippstream.ErrWouldBlock
	}

	if len(r.data) == 0 {
		return 0, io.EOF
	}

	if len(buf) > r.chunk {
		buf = buf[:r.chunk]
	}

	n := copy(buf, r.data)
	r.data = r.data[n:]
	r.block = true

	return n, nil
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `ippdump - decode and pretty-print IPP messages.

Each file must contain a single IPP message, possibly followed by
a document data. With --chunk, the message is decoded in
non-blocking mode from a source that returns the data by chunks
of the specified size.

Usage:
  ippdump [flags] file...

Examples:
  # Print the message
  ippdump print-job.ipp

  # Decode by 3-byte chunks, re-encode and compare with the input
  ippdump --chunk 3 --reencode print-job.ipp

Flags:
`)
	flagSet.SetOutput(os.Stderr)
	flagSet.PrintDefaults()
}
