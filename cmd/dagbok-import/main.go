// Command dagbok-import bulk-loads entry files into a diary database.
//
// Markdown files are named "{year}-{month}-{day}-{hour}-{minute}.md"
// without leading zeroes; HTML files are converted to markdown and
// stamped with their modification time.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	_ "modernc.org/sqlite"

	"github.com/soverbye/dagbok/internal/dbopen"
	"github.com/soverbye/dagbok/internal/entry"
	"github.com/soverbye/dagbok/internal/importer"
)

func main() {
	dbPath := flag.String("db", "diary.sqlite3", "diary database path")
	dir := flag.String("dir", "docs", "directory of entry files")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	db, err := dbopen.Open(*dbPath, dbopen.WithMkdirAll(), dbopen.WithSchema(entry.Schema))
	if err != nil {
		logger.Error("open diary db", "path", *dbPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	imp := importer.New(entry.NewStore(db), logger)
	res, err := imp.Run(context.Background(), *dir)
	if err != nil {
		logger.Error("import failed", "dir", *dir, "error", err)
		os.Exit(1)
	}
	logger.Info("import finished", "imported", res.Imported, "skipped", res.Skipped)
	if res.Skipped > 0 {
		os.Exit(1)
	}
}
