package source

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
)

// LocalSource reads one EIEP3 file from the local filesystem.
type LocalSource struct {
	path string
}

// NewLocalSource constructs a local file source.
func NewLocalSource(path string) (*LocalSource, error) {
	if path == "" {
		return nil, errors.New("source: local file path required")
	}
	return &LocalSource{path: path}, nil
}

// Lines returns every line of the configured file in order.
func (s *LocalSource) Lines(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return scanLines(file)
}

func scanLines(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}
