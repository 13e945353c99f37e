package dataset

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"os"
	"strings"
)

// Paths yields the given paths in order.
func Paths(paths ...string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, p := range paths {
			if !yield(p, nil) {
				return
			}
		}
	}
}

// Lines yields one path per non-empty line of r. Lines starting with '#'
// are skipped. A read error ends the sequence with that error.
func Lines(r io.Reader) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			if !yield(line, nil) {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			yield("", fmt.Errorf("reading paths: %w", err))
		}
	}
}

// File yields the paths listed in the named file, see Lines. The file is
// opened when iteration starts.
func File(name string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		f, err := os.Open(name)
		if err != nil {
			yield("", fmt.Errorf("opening path list: %w", err))
			return
		}
		defer f.Close()

		for p, err := range Lines(f) {
			if !yield(p, err) {
				return
			}
		}
	}
}
