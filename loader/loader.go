// Package loader reads program and data images from text files.
//
// A program image holds one instruction word per line in decimal. A data
// image holds one "address-value" pair per line, both decimal, where
// address is a byte address and value may be negative. Blank lines and
// surrounding whitespace are ignored in both.
package loader

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/sarchlab/mipsim/emu"
	"github.com/sarchlab/mipsim/log"
)

// ErrMissingSeparator is returned for a data line without a '-'.
var ErrMissingSeparator = errors.New("missing '-' between address and value")

// LineError reports a malformed line in an image.
type LineError struct {
	Line int
	Text string
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d %q: %v", e.Line, e.Text, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }

// Image is a program with its initial data.
type Image struct {
	Program []uint32
	Data    []emu.DataEntry
}

// Load reads the program image at programPath and, if dataPath is not
// empty, the data image at dataPath.
func Load(programPath, dataPath string) (*Image, error) {
	program, err := LoadProgramFile(programPath)
	if err != nil {
		return nil, err
	}

	img := &Image{Program: program}
	if dataPath == "" {
		return img, nil
	}

	img.Data, err = LoadDataFile(dataPath)
	if err != nil {
		return nil, err
	}

	return img, nil
}

// LoadProgramFile reads the program image at path.
func LoadProgramFile(path string) ([]uint32, error) {
	return readFile(path, LoadProgram)
}

// LoadDataFile reads the data image at path.
func LoadDataFile(path string) ([]emu.DataEntry, error) {
	return readFile(path, LoadData)
}

func readFile[T any](path string, parse func(io.Reader) (T, error)) (T, error) {
	var zero T

	f, err := os.Open(path)
	if err != nil {
		return zero, fmt.Errorf("failed to open image file: %w", err)
	}
	defer func() { _ = f.Close() }()

	v, err := parse(f)
	if err != nil {
		return zero, fmt.Errorf("%s: %w", path, err)
	}

	return v, nil
}

// LoadProgram parses a program image.
func LoadProgram(r io.Reader) ([]uint32, error) {
	var words []uint32

	err := scanLines(r, func(text string) error {
		word, err := strconv.ParseUint(text, 10, 32)
		if err != nil {
			return err
		}
		words = append(words, uint32(word))
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Debug(log.LoaderModule, "program loaded", "words", len(words))

	return words, nil
}

// LoadData parses a data image.
func LoadData(r io.Reader) ([]emu.DataEntry, error) {
	var entries []emu.DataEntry

	err := scanLines(r, func(text string) error {
		addrText, valueText, ok := strings.Cut(text, "-")
		if !ok {
			return ErrMissingSeparator
		}

		addr, err := strconv.ParseInt(strings.TrimSpace(addrText), 10, 64)
		if err != nil {
			return fmt.Errorf("address: %w", err)
		}
		value, err := strconv.ParseInt(strings.TrimSpace(valueText), 10, 64)
		if err != nil {
			return fmt.Errorf("value: %w", err)
		}

		entries = append(entries, emu.DataEntry{Addr: addr, Value: value})
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Debug(log.LoaderModule, "data loaded", "entries", len(entries))

	return entries, nil
}

// WriteProgram writes words as a program image.
func WriteProgram(w io.Writer, words []uint32) error {
	bw := bufio.NewWriter(w)
	for _, word := range words {
		if _, err := fmt.Fprintln(bw, word); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func scanLines(r io.Reader, parse func(text string) error) error {
	scanner := bufio.NewScanner(r)

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if err := parse(text); err != nil {
			return &LineError{Line: line, Text: text, Err: err}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}

	return nil
}
