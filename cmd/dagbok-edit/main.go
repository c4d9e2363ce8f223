// Command dagbok-edit writes a diary entry from the terminal.
//
// It opens $EDITOR on a draft file and, while the editor is open, saves the
// draft locally and to the server every few seconds. Closing the editor
// submits the entry; an interrupted session leaves the draft recoverable,
// and the next run picks it up.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/soverbye/dagbok/internal/draft"
	"github.com/soverbye/dagbok/internal/editor"
)

type config struct {
	// ServerURL is the diary server base URL.
	ServerURL string `yaml:"server_url"`
	// Interval between draft saves.
	Interval time.Duration `yaml:"interval"`
	// Editor is the editor command line, for example "code --wait".
	Editor string `yaml:"editor"`
}

func loadConfig() config {
	cfg := config{ServerURL: "http://localhost:62336"}

	if home, err := os.UserHomeDir(); err == nil {
		path := filepath.Join(home, ".config", "dagbok", "config.yaml")
		if data, err := os.ReadFile(path); err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				slog.Warn("config file ignored", "path", path, "error", err)
			}
		}
	}

	if v := os.Getenv("DAGBOK_SERVER"); v != "" {
		cfg.ServerURL = v
	}
	if v := os.Getenv("DAGBOK_EDITOR"); v != "" {
		cfg.Editor = v
	}
	if cfg.Editor == "" {
		cfg.Editor = os.Getenv("VISUAL")
	}
	if cfg.Editor == "" {
		cfg.Editor = os.Getenv("EDITOR")
	}
	if cfg.Editor == "" {
		cfg.Editor = "vi"
	}
	return cfg
}

// stateDir is where drafts survive between runs.
func stateDir() (string, error) {
	base := os.Getenv("XDG_STATE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home: %w", err)
		}
		base = filepath.Join(home, ".local", "state")
	}
	dir := filepath.Join(base, "dagbok")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("create state dir: %w", err)
	}
	return dir, nil
}

func main() {
	godotenv.Load()
	cfg := loadConfig()

	// Logs go to stderr; stdout carries only the created entry's URL.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("dagbok-edit failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg config, logger *slog.Logger) error {
	dir, err := stateDir()
	if err != nil {
		return err
	}
	storage, err := draft.NewDirStorage(filepath.Join(dir, "drafts"))
	if err != nil {
		return err
	}

	base := strings.TrimRight(cfg.ServerURL, "/")
	draftPath := filepath.Join(dir, "draft.md")

	var file *editor.File
	open := func(initial string) (draft.Editor, error) {
		f, err := editor.Open(draftPath, initial, editor.Options{Logger: logger})
		if err != nil {
			return nil, err
		}
		file = f
		return f, nil
	}

	session, err := draft.NewSession(open, "", draft.Config{
		DraftURL:  base + "/draft",
		SubmitURL: base + "/new",
		Interval:  cfg.Interval,
		Storage:   storage,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	// Draft saving runs only while the editor is open. An interrupt or
	// editor crash stops it, and the local draft carries the session's
	// work into the next run.
	ctx, cancel := context.WithCancel(context.Background())
	go file.Watch(ctx)
	go session.Run(ctx)

	logger.Info("editing", "file", draftPath, "server", base, "session", session.ID())
	err = file.RunEditor(ctx, strings.Fields(cfg.Editor))
	cancel()
	if err != nil {
		return err
	}

	if strings.TrimSpace(session.Mirror().Text()) == "" {
		logger.Info("empty document, nothing submitted")
		return nil
	}

	submitCtx, cancelSubmit := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelSubmit()
	location, err := session.Submit(submitCtx)
	if err != nil {
		return fmt.Errorf("submit (draft kept at %s): %w", draftPath, err)
	}

	os.Remove(draftPath)
	fmt.Println(location)
	return nil
}
