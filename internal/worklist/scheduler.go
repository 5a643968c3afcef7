// ============================================================================
// Work-List Scheduler
// ============================================================================
//
// Package: internal/worklist
// File: scheduler.go
// Purpose: Maintain the {todo, wip, completed} triple of files that track a
//          backlog of work items through a single-writer, crash-safe
//          restart-from-where-you-left-off flow.
//
// File roles:
//   todo      - ordered list of items not yet started
//   wip       - ordered list of items currently checked out (size <= batch_size)
//   completed - append-only log of finished items
//
// State machine per item:
//
//   [in todo] --NextBatch()--> [in wip] --MarkCompleted()--> [in completed]
//
// There is no reverse transition: a failure mid-processing simply leaves the
// item in wip, so the next run's NextBatch call picks it straight back up.
//
// Crash safety:
//   MarkCompleted appends to completed BEFORE it rewrites wip. That order is
//   load-bearing - after a crash between the two writes, the item is already
//   findable in completed even though wip was never rewritten to drop it.
//   Re-running NextBatch on such a wip will simply hand the same (now
//   completed) item back out. The orchestrator (internal/orchestrator) does
//   not consult completed: it loads that item again and calls MarkCompleted
//   again, which appends a second completed line for it.
//
// Concurrency:
//   Single-writer. No file locking is used or required; the scheduler
//   assumes it is the only process mutating work_lists_dir.
//
// ============================================================================

package worklist

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Scheduler hands out successive batches of work items from todo, tracks
// them through wip, and records finishers in completed.
type Scheduler struct {
	Dir       string
	BatchSize int

	todoPath      string
	wipPath       string
	completedPath string

	wipList []string

	log *slog.Logger
}

// New constructs a Scheduler rooted at dir. todo must already exist (an
// empty todo file is fine; a missing one is ErrTodoMissing). If wip exists,
// its contents seed the in-memory wip list.
func New(dir string, batchSize int, log *slog.Logger) (*Scheduler, error) {
	if log == nil {
		log = slog.Default()
	}
	todoPath := filepath.Join(dir, "todo")
	wipPath := filepath.Join(dir, "wip")
	completedPath := filepath.Join(dir, "completed")

	if _, err := os.Stat(todoPath); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrTodoMissing, todoPath, err)
	}

	wipList, err := readItemFile(wipPath)
	if err != nil {
		return nil, fmt.Errorf("worklist: reading existing wip file %s: %w", wipPath, err)
	}
	log.Info("worklist scheduler initialized", "dir", dir, "batch_size", batchSize, "initial_wip", len(wipList))

	return &Scheduler{
		Dir:           dir,
		BatchSize:     batchSize,
		todoPath:      todoPath,
		wipPath:       wipPath,
		completedPath: completedPath,
		wipList:       wipList,
		log:           log,
	}, nil
}

// WipList returns the current in-memory batch. Callers must not mutate the
// returned slice.
func (s *Scheduler) WipList() []string {
	return s.wipList
}

// NextBatch returns the current batch of work items, pulling a fresh batch
// from todo if and only if wip is currently empty.
//
// If the in-memory wip list is non-empty, the on-disk wip file is re-read
// and compared byte-for-byte (after comment/blank filtering) against it: if
// they match, the same batch is returned unchanged (the caller should
// re-process whatever is still in flight); if they differ, NextBatch fails
// with ErrInconsistentWip and touches no file.
//
// If the in-memory wip list is empty, NextBatch reads up to BatchSize lines
// from the head of todo, writes them to wip (truncate-then-write), and
// rewrites todo (truncate-then-write) with whatever remains. An empty
// result means the backlog is exhausted.
func (s *Scheduler) NextBatch() ([]string, error) {
	if len(s.wipList) > 0 {
		onDisk, err := readItemFile(s.wipPath)
		if err != nil {
			return nil, fmt.Errorf("worklist: re-reading wip file %s: %w", s.wipPath, err)
		}
		if equalStringSlices(onDisk, s.wipList) {
			s.log.Debug("wip non-empty and consistent, resuming in-flight batch", "size", len(s.wipList))
			return s.wipList, nil
		}
		s.log.Error("wip file diverged from in-memory list", "on_disk", onDisk, "in_memory", s.wipList)
		return nil, fmt.Errorf("%w: on-disk=%v in-memory=%v", ErrInconsistentWip, onDisk, s.wipList)
	}

	todoLines, err := readItemFile(s.todoPath)
	if err != nil {
		return nil, fmt.Errorf("worklist: reading todo file %s: %w", s.todoPath, err)
	}

	batch := todoLines
	remaining := []string(nil)
	if len(todoLines) > s.BatchSize {
		batch = todoLines[:s.BatchSize]
		remaining = todoLines[s.BatchSize:]
	}

	if err := writeItemFile(s.wipPath, batch); err != nil {
		return nil, fmt.Errorf("worklist: writing wip file %s: %w", s.wipPath, err)
	}
	if err := writeItemFile(s.todoPath, remaining); err != nil {
		return nil, fmt.Errorf("worklist: rewriting todo file %s: %w", s.todoPath, err)
	}

	s.wipList = batch
	s.log.Info("checked out new batch", "size", len(batch), "remaining_todo", len(remaining))
	return s.wipList, nil
}

// MarkCompleted retires item from the wip batch: it is removed from the
// in-memory list, appended to completed, and wip is rewritten - in that
// order, so a crash between the two writes still leaves the item durably
// recorded as done.
func (s *Scheduler) MarkCompleted(item string) error {
	found := false
	next := make([]string, 0, len(s.wipList))
	for _, it := range s.wipList {
		if it == item {
			found = true
			continue
		}
		next = append(next, it)
	}
	if !found {
		return fmt.Errorf("%w: %q", ErrItemNotInWip, item)
	}

	if err := appendItemLine(s.completedPath, item); err != nil {
		return fmt.Errorf("worklist: appending %q to completed file %s: %w", item, s.completedPath, err)
	}

	s.wipList = next
	if err := writeItemFile(s.wipPath, s.wipList); err != nil {
		return fmt.Errorf("worklist: rewriting wip file %s after marking %q completed: %w", s.wipPath, item, err)
	}

	s.log.Debug("marked item completed", "item", item, "remaining_wip", len(s.wipList))
	return nil
}

// ---- file helpers --------------------------------------------------------

// readItemFile reads non-comment, non-blank lines from path. A missing file
// is treated as an empty list, not an error - callers that need "missing is
// fatal" (todo at construction time) check os.Stat themselves first.
func readItemFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var items []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		items = append(items, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// writeItemFile truncates (or creates) path and writes one item per line,
// then fsyncs - the "MAY fsync after each write" recommendation this
// implementation takes up.
func writeItemFile(path string, items []string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, item := range items {
		if _, err := fmt.Fprintln(w, item); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return f.Sync()
}

// appendItemLine opens path in append mode (creating it if necessary),
// writes one line, and fsyncs before returning.
func appendItemLine(path, item string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := fmt.Fprintln(f, item); err != nil {
		return err
	}
	return f.Sync()
}

func equalStringSlices(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
