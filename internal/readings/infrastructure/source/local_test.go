package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestLocalSource_Lines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eiep3_data.csv")
	content := "HDR,X,Y,SND,RCV,Z,01/05/2024,00:00:00,FILE1,W,202405\n\nDET,ICP1,MTR1,OK,01/05/2024,1,1.0,,G\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	src, err := NewLocalSource(path)
	if err != nil {
		t.Fatalf("new source: %v", err)
	}

	lines, err := src.Lines(context.Background())
	if err != nil {
		t.Fatalf("lines: %v", err)
	}
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[1] != "" {
		t.Fatalf("expected blank middle line, got %q", lines[1])
	}
}

func TestLocalSource_MissingFile(t *testing.T) {
	src, err := NewLocalSource(filepath.Join(t.TempDir(), "missing.csv"))
	if err != nil {
		t.Fatalf("new source: %v", err)
	}
	if _, err := src.Lines(context.Background()); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestNewLocalSource_EmptyPath(t *testing.T) {
	if _, err := NewLocalSource(""); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestNewSFTPSource_RequiresConnectionDetails(t *testing.T) {
	if _, err := NewSFTPSource(SFTPConfig{Host: "sftp.example.com"}); err == nil {
		t.Fatal("expected error for missing username and path")
	}
}
