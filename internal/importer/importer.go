// Package importer bulk-loads diary entries from a directory of files.
//
// Markdown files carry their own timestamp in the file name, formatted
// "{year}-{month}-{day}-{hour}-{minute}.md" without leading zeroes, for
// example "2023-2-3-15-59.md". The stem is interpreted in local time.
// HTML files are converted to markdown on the way in and stamped with
// the file's modification time.
package importer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/soverbye/dagbok/internal/entry"
)

// Importer loads entry files into a diary store.
type Importer struct {
	store  *entry.Store
	logger *slog.Logger
	conv   *converter.Converter
}

// New creates an Importer writing to store.
func New(store *entry.Store, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{
		store:  store,
		logger: logger,
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
}

// Result summarizes one import run.
type Result struct {
	Imported int
	Skipped  int
}

// Run imports every .md and .html file directly under dir. Files it cannot
// handle are logged and skipped; the run keeps going.
func (imp *Importer) Run(ctx context.Context, dir string) (*Result, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read import dir: %w", err)
	}

	res := &Result{}
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		path := filepath.Join(dir, f.Name())
		if err := imp.importFile(ctx, path); err != nil {
			imp.logger.Warn("skipping file", "path", path, "error", err)
			res.Skipped++
			continue
		}
		res.Imported++
	}
	return res, nil
}

func (imp *Importer) importFile(ctx context.Context, path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md":
		return imp.importMarkdown(ctx, path)
	case ".html", ".htm":
		return imp.importHTML(ctx, path)
	default:
		return fmt.Errorf("unsupported file type %q", filepath.Ext(path))
	}
}

func (imp *Importer) importMarkdown(ctx context.Context, path string) error {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	at, err := parseStem(stem)
	if err != nil {
		return err
	}
	body, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}
	id, err := imp.store.CreateAt(ctx, at, string(body))
	if err != nil {
		return err
	}
	imp.logger.Info("imported entry", "path", path, "entry_id", id, "timestamp", at)
	return nil
}

func (imp *Importer) importHTML(ctx context.Context, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat file: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	md, err := imp.conv.ConvertString(string(data))
	if err != nil {
		return fmt.Errorf("convert html: %w", err)
	}
	md = strings.TrimSpace(md)
	if md == "" {
		return fmt.Errorf("no content after conversion")
	}

	// Promote the document title to a heading when the body lacks one.
	if title := htmlTitle(data); title != "" && !strings.HasPrefix(md, "#") {
		md = "# " + title + "\n\n" + md
	}

	id, err := imp.store.CreateAt(ctx, info.ModTime(), md)
	if err != nil {
		return err
	}
	imp.logger.Info("imported entry", "path", path, "entry_id", id, "timestamp", info.ModTime())
	return nil
}

// parseStem turns "2023-2-3-15-59" into the local-time instant it names.
func parseStem(stem string) (time.Time, error) {
	parts := strings.Split(stem, "-")
	if len(parts) != 5 {
		return time.Time{}, fmt.Errorf("file name %q is not year-month-day-hour-minute", stem)
	}
	n := make([]int, 5)
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return time.Time{}, fmt.Errorf("file name %q: %w", stem, err)
		}
		n[i] = v
	}
	t := time.Date(n[0], time.Month(n[1]), n[2], n[3], n[4], 0, 0, time.Local)
	// time.Date normalizes out-of-range fields; reject names that moved.
	if t.Year() != n[0] || int(t.Month()) != n[1] || t.Day() != n[2] {
		return time.Time{}, fmt.Errorf("file name %q names an impossible date", stem)
	}
	return t, nil
}

// htmlTitle extracts the <title> text, or "" when absent.
func htmlTitle(data []byte) string {
	doc, err := html.Parse(strings.NewReader(string(data)))
	if err != nil {
		return ""
	}
	return findTitle(doc)
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.DataAtom == atom.Title {
		if n.FirstChild != nil {
			return strings.TrimSpace(n.FirstChild.Data)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}
