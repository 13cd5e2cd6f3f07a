package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abdul-hamid-achik/hitflow/packages/plan"
)

const (
	// WatchDebounceDelay is the debounce delay for file watch events
	WatchDebounceDelay = 300 * time.Millisecond
)

func isPlanFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}

func collectFiles(args []string) ([]string, error) {
	var files []string

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}

		if info.IsDir() {
			err := filepath.Walk(arg, func(path string, info os.FileInfo, err error) error {
				if err != nil {
					return err
				}
				if !info.IsDir() && isPlanFile(path) && !isConfigFile(path) {
					files = append(files, path)
				}
				return nil
			})
			if err != nil {
				return nil, err
			}
		} else {
			files = append(files, arg)
		}
	}

	return files, nil
}

func isConfigFile(path string) bool {
	base := filepath.Base(path)
	return base == ".hitflow.json" || base == "hitflow.config.json" ||
		base == ".hitflow.yaml" || base == "hitflow.yaml"
}

// loadPlans loads every plan of the wanted kind named by args. Plans of other
// kinds found while walking a directory are skipped; naming one directly is
// a usage error.
func loadPlans(args []string, kind plan.Kind, logger *zap.Logger) ([]*plan.Document, error) {
	files, err := collectFiles(args)
	if err != nil {
		return nil, exitWith(ExitUsageError, err)
	}

	explicit := make(map[string]bool, len(args))
	for _, arg := range args {
		explicit[arg] = true
	}

	var docs []*plan.Document
	for _, file := range files {
		doc, err := plan.LoadFile(file)
		if err != nil {
			return nil, exitWith(ExitParseError, err)
		}
		if doc.Kind != kind {
			if explicit[file] {
				return nil, exitWith(ExitUsageError, fmt.Errorf("%s is a %s plan, not a %s plan", file, doc.Kind, kind))
			}
			logger.Debug("skipping plan", zap.String("file", file), zap.String("kind", string(doc.Kind)))
			continue
		}
		if doc.Name == "" {
			doc.Name = strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
		}
		docs = append(docs, doc)
	}

	if len(docs) == 0 {
		return nil, exitWith(ExitUsageError, fmt.Errorf("no %s plans found", kind))
	}
	return docs, nil
}

// watch re-invokes rerun whenever a plan file under args is written, until
// ctx is cancelled
func watch(ctx context.Context, cmd *cobra.Command, s *session, args []string, rerun func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	watchedDirs := make(map[string]bool)
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			continue
		}
		if !info.IsDir() {
			dir := filepath.Dir(arg)
			if !watchedDirs[dir] {
				if err := watcher.Add(dir); err != nil {
					s.formatter.FormatError(fmt.Errorf("failed to watch %s: %w", dir, err))
				}
				watchedDirs[dir] = true
			}
			continue
		}
		_ = filepath.Walk(arg, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() && !watchedDirs[path] {
				_ = watcher.Add(path)
				watchedDirs[path] = true
			}
			return nil
		})
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\nWatching for changes... (press Ctrl+C to stop)\n\n")

	var (
		debounce *time.Timer
		fire     <-chan time.Time
		changed  string
	)

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) || !isPlanFile(event.Name) {
				continue
			}
			changed = event.Name
			if debounce == nil {
				debounce = time.NewTimer(WatchDebounceDelay)
			} else {
				debounce.Reset(WatchDebounceDelay)
			}
			fire = debounce.C

		case <-fire:
			fire = nil
			fmt.Fprintf(cmd.OutOrStdout(), "\n\nFile changed: %s\nRe-running...\n\n", changed)
			s.reset()
			rerun()
			fmt.Fprintf(cmd.OutOrStdout(), "\nWatching for changes... (press Ctrl+C to stop)\n")

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.formatter.FormatError(fmt.Errorf("watcher error: %w", err))
		}
	}
}

// finish maps the outcome of a command to its exit error. A failure that
// never reached a server outranks an ordinary test failure.
func (s *session) finish(passed bool) error {
	if s.unreachable {
		return exitWith(ExitNetworkError, nil)
	}
	if !passed {
		return exitWith(ExitTestFailure, nil)
	}
	return nil
}
