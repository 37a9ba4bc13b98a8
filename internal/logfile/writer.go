package logfile

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/sirupsen/logrus"
)

// DatePlaceholder in a filename is replaced by the current date.
const DatePlaceholder = "%DATE%"

// DefaultDateLayout yields names such as console-all-20260217.log.
const DefaultDateLayout = "20060102"

// DailyWriter implements daily log rotation. When the date changes the
// previous file is closed and, if enabled, gzip-compressed in the background.
type DailyWriter struct {
	mu       sync.Mutex
	dir      string
	filename string
	layout   string
	compress bool
	clock    clock.Clock
	log      logrus.FieldLogger

	file    *os.File
	current string
	wg      sync.WaitGroup
}

// NewDailyWriter creates a writer and opens today's file.
func NewDailyWriter(dir, filename, layout string, compress bool, clk clock.Clock, log logrus.FieldLogger) (*DailyWriter, error) {
	if layout == "" {
		layout = DefaultDateLayout
	}
	if !strings.Contains(filename, DatePlaceholder) {
		ext := filepath.Ext(filename)
		filename = strings.TrimSuffix(filename, ext) + "-" + DatePlaceholder + ext
	}
	w := &DailyWriter{
		dir:      dir,
		filename: filename,
		layout:   layout,
		compress: compress,
		clock:    clk,
		log:      log,
	}
	if err := w.rotateIfNeeded(); err != nil {
		return nil, err
	}
	return w, nil
}

// Write implements the io.Writer interface.
func (w *DailyWriter) Write(p []byte) (n int, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.rotateIfNeeded(); err != nil {
		return 0, err
	}
	return w.file.Write(p)
}

// Path returns the file currently written to.
func (w *DailyWriter) Path() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.path(w.current)
}

func (w *DailyWriter) path(date string) string {
	return filepath.Join(w.dir, strings.ReplaceAll(w.filename, DatePlaceholder, date))
}

func (w *DailyWriter) rotateIfNeeded() error {
	today := w.clock.Now().Format(w.layout)
	if w.file != nil && w.current == today {
		return nil
	}

	if w.file != nil {
		prev := w.file.Name()
		_ = w.file.Close()
		if w.compress {
			w.wg.Add(1)
			go func() {
				defer w.wg.Done()
				if err := compressFile(prev); err != nil {
					w.log.WithError(err).Warnf("failed to compress rotated log file %s", prev)
				}
			}()
		}
	}

	if err := w.openFile(w.path(today)); err != nil {
		return err
	}
	w.current = today
	return nil
}

func (w *DailyWriter) openFile(name string) error {
	if err := os.MkdirAll(filepath.Dir(name), 0755); err != nil {
		return err
	}
	file, err := os.OpenFile(name, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open log file %s: %w", name, err)
	}
	w.file = file
	return nil
}

// Close closes the current file and waits for pending compressions.
func (w *DailyWriter) Close() error {
	w.mu.Lock()
	var err error
	if w.file != nil {
		err = w.file.Close()
		w.file = nil
	}
	w.mu.Unlock()
	w.wg.Wait()
	return err
}

// compressFile replaces name by name.gz.
func compressFile(name string) error {
	in, err := os.Open(name)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(name+".gz", os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	zw := gzip.NewWriter(out)
	if _, err := io.Copy(zw, in); err != nil {
		out.Close()
		return err
	}
	if err := zw.Close(); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(name)
}
