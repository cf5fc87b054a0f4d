package batch

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rshade/youseo/internal/engine"
	"github.com/rshade/youseo/internal/youtube"
)

// MaxInputLength is the longest input line kept. Longer lines still become
// one item each, failing at the resolving stage with ErrInputTooLong.
const MaxInputLength = 4096

var (
	// ErrNoInputs is returned when a batch has nothing to process.
	ErrNoInputs = errors.New("no inputs to process")

	// ErrInputTooLong marks an input line longer than MaxInputLength.
	ErrInputTooLong = fmt.Errorf("input longer than %d bytes: %w", MaxInputLength, engine.ErrMalformed)
)

// ParseInputs reads one input per line. Blank lines and lines starting with
// '#' are skipped; every other line becomes exactly one input, including
// lines that will fail to resolve.
func ParseInputs(r io.Reader) ([]Input, error) {
	var inputs []Input
	br := bufio.NewReaderSize(r, MaxInputLength)
	for line := 1; ; line++ {
		text, tooLong, err := readLine(br)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading inputs: %w", err)
		}

		text = strings.TrimSpace(text)
		if (text == "" && !tooLong) || strings.HasPrefix(text, "#") {
			continue
		}
		in := Input{Raw: text, Line: line}
		if tooLong {
			in.Err = ErrInputTooLong
		}
		inputs = append(inputs, in)
	}
	return inputs, nil
}

// readLine returns the next line without its terminator, keeping at most
// MaxInputLength bytes and discarding the rest. It returns io.EOF only when
// no bytes are left.
func readLine(br *bufio.Reader) (string, bool, error) {
	var (
		buf   []byte
		total int
	)
	for {
		frag, isPrefix, err := br.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) && total > 0 {
				break
			}
			return "", false, err
		}
		total += len(frag)
		if room := MaxInputLength - len(buf); room > 0 {
			buf = append(buf, frag[:min(room, len(frag))]...)
		}
		if !isPrefix {
			break
		}
	}
	return string(buf), total > MaxInputLength, nil
}

// ParseCSVInputs reads the first column of every record. A first record whose
// first cell is neither a URL nor a bare video id is treated as a header and
// skipped. Records with an empty first cell are skipped.
func ParseCSVInputs(r io.Reader) ([]Input, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var inputs []Input
	for record := 0; ; record++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv inputs: %w", err)
		}
		if len(row) == 0 {
			continue
		}
		cell := strings.TrimSpace(row[0])
		if record == 0 && !looksLikeURL(cell) && !youtube.IsVideoID(cell) {
			continue
		}
		if cell == "" {
			continue
		}
		line, _ := reader.FieldPos(0)
		inputs = append(inputs, Input{Raw: cell, Line: line})
	}
	return inputs, nil
}

func looksLikeURL(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http") || strings.Contains(lower, "youtu")
}

// ReadInputFile loads inputs from path. Files ending in .csv are parsed with
// ParseCSVInputs, everything else with ParseInputs.
func ReadInputFile(path string) ([]Input, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening input file: %w", err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return ParseCSVInputs(f)
	}
	return ParseInputs(f)
}

// InputsFromArgs converts command-line arguments to inputs, skipping blank
// arguments.
func InputsFromArgs(args []string) []Input {
	inputs := make([]Input, 0, len(args))
	for _, arg := range args {
		if s := strings.TrimSpace(arg); s != "" {
			inputs = append(inputs, Input{Raw: s})
		}
	}
	return inputs
}
