package export

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Target is a user-owned destination for manual exports.
type Target interface {
	Commit(ctx context.Context, path string, content []byte, message string) error
}

// DirTarget writes exports below a local directory. Each commit message is
// appended to a log file in the root.
type DirTarget struct {
	Root    string
	LogName string
	logger  *slog.Logger
	now     func() time.Time
}

func NewDirTarget(root string, logger *slog.Logger) *DirTarget {
	if logger == nil {
		logger = slog.Default()
	}
	return &DirTarget{Root: root, LogName: "EXPORTS.log", logger: logger, now: time.Now}
}

func (d *DirTarget) Commit(ctx context.Context, path string, content []byte, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ValidateOutputDir(d.Root); err != nil {
		return err
	}
	if err := ValidateTargetPath(path); err != nil {
		return err
	}

	dest := filepath.Join(d.Root, filepath.FromSlash(path))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".export-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return fmt.Errorf("write export: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close export: %w", err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return fmt.Errorf("move export into place: %w", err)
	}

	logFile, err := os.OpenFile(filepath.Join(d.Root, d.LogName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open export log: %w", err)
	}
	defer logFile.Close()
	if _, err := fmt.Fprintf(logFile, "%s\t%s\t%s\n", d.now().UTC().Format(time.RFC3339), path, message); err != nil {
		return fmt.Errorf("append export log: %w", err)
	}

	d.logger.Info("export written", "path", dest, "bytes", len(content))
	return nil
}
