package worklist

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func TestNew_MissingTodoIsFatal(t *testing.T) {
	dir := t.TempDir()
	_, err := New(dir, 2, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTodoMissing)
}

func TestNew_EmptyTodoIsFine(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "todo"), "")

	s, err := New(dir, 2, nil)
	require.NoError(t, err)
	assert.Empty(t, s.WipList())
}

func TestNew_LoadsExistingWipIgnoringCommentsAndBlankLines(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "todo"), "")
	writeFile(t, filepath.Join(dir, "wip"), "ITEM_A\n  # a comment\n\nITEM_B\n   \n")

	s, err := New(dir, 2, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"ITEM_A", "ITEM_B"}, s.WipList())
}

// Scenario 1: first-run batch.
func TestNextBatch_FirstRun(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "todo"), "item_A\nitem_B\nitem_C\nitem_D\nitem_E\n")

	s, err := New(dir, 3, nil)
	require.NoError(t, err)

	batch, err := s.NextBatch()
	require.NoError(t, err)

	assert.Equal(t, []string{"item_A", "item_B", "item_C"}, batch)
	assert.Equal(t, "item_A\nitem_B\nitem_C\n", readFile(t, filepath.Join(dir, "wip")))
	assert.Equal(t, "item_D\nitem_E\n", readFile(t, filepath.Join(dir, "todo")))
}

// Scenario 2: batch larger than remaining todo.
func TestNextBatch_BiggerThanTodo(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "todo"), "item_A\nitem_B\nitem_C\nitem_D\nitem_E\n")

	s, err := New(dir, 10, nil)
	require.NoError(t, err)

	batch, err := s.NextBatch()
	require.NoError(t, err)

	assert.Equal(t, []string{"item_A", "item_B", "item_C", "item_D", "item_E"}, batch)
	assert.Equal(t, "", readFile(t, filepath.Join(dir, "todo")))
	assert.Equal(t, "item_A\nitem_B\nitem_C\nitem_D\nitem_E\n", readFile(t, filepath.Join(dir, "wip")))
}

// Scenario 3: resume with existing wip; next_batch touches no file.
func TestNextBatch_ResumeExistingWip(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "todo"), "item_D\nitem_E\n")
	writeFile(t, filepath.Join(dir, "wip"), "ITEM_A\nITEM_B\n")

	s, err := New(dir, 2, nil)
	require.NoError(t, err)

	beforeTodo := readFile(t, filepath.Join(dir, "todo"))
	beforeWip := readFile(t, filepath.Join(dir, "wip"))

	batch, err := s.NextBatch()
	require.NoError(t, err)
	assert.Equal(t, []string{"ITEM_A", "ITEM_B"}, batch)

	assert.Equal(t, beforeTodo, readFile(t, filepath.Join(dir, "todo")))
	assert.Equal(t, beforeWip, readFile(t, filepath.Join(dir, "wip")))
}

// Scenario 4: inconsistent wip fails and leaves todo untouched.
func TestNextBatch_InconsistentWipFails(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "todo"), "item_D\nitem_E\n")
	writeFile(t, filepath.Join(dir, "wip"), "ITEM_A\nITEM_B\n")

	s, err := New(dir, 2, nil)
	require.NoError(t, err)

	// Simulate external edit: in-memory list no longer matches the file.
	s.wipList = []string{"NOT_ITEM_A", "NOT_ITEM_B"}

	before := readFile(t, filepath.Join(dir, "todo"))
	_, err = s.NextBatch()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInconsistentWip)
	assert.Equal(t, before, readFile(t, filepath.Join(dir, "todo")))
}

// Scenario 5: mark completed, no pre-existing completed file.
func TestMarkCompleted_NewCompletedFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "todo"), "")
	writeFile(t, filepath.Join(dir, "wip"), "apple\nbanana\n")

	s, err := New(dir, 2, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"apple", "banana"}, s.WipList())

	require.NoError(t, s.MarkCompleted("apple"))

	assert.Equal(t, "apple\n", readFile(t, filepath.Join(dir, "completed")))
	assert.Equal(t, "banana\n", readFile(t, filepath.Join(dir, "wip")))
	assert.Equal(t, []string{"banana"}, s.WipList())
}

// Regression test ported from the original Rust test suite: mark_completed
// with an already-existing completed file appends rather than overwrites.
func TestMarkCompleted_ExistingCompletedFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "todo"), "")
	writeFile(t, filepath.Join(dir, "wip"), "cherry\ndates\n")
	writeFile(t, filepath.Join(dir, "completed"), "apple\nbanana\n")

	s, err := New(dir, 2, nil)
	require.NoError(t, err)
	s.wipList = []string{"cherry", "dates"}

	require.NoError(t, s.MarkCompleted("cherry"))

	assert.Equal(t, "apple\nbanana\ncherry\n", readFile(t, filepath.Join(dir, "completed")))
	assert.Equal(t, "dates\n", readFile(t, filepath.Join(dir, "wip")))
	assert.Equal(t, []string{"dates"}, s.WipList())
}

func TestMarkCompleted_UnknownItemFails(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "todo"), "")
	writeFile(t, filepath.Join(dir, "wip"), "apple\n")

	s, err := New(dir, 1, nil)
	require.NoError(t, err)

	err = s.MarkCompleted("not-there")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrItemNotInWip)
}

// Property: completed + wip + remaining todo == original todo, as multisets,
// across a sequence of NextBatch/MarkCompleted calls.
func TestInvariant_NoItemLostOrDuplicated(t *testing.T) {
	dir := t.TempDir()
	original := []string{"item_A", "item_B", "item_C", "item_D", "item_E"}
	writeFile(t, filepath.Join(dir, "todo"), "item_A\nitem_B\nitem_C\nitem_D\nitem_E\n")

	s, err := New(dir, 2, nil)
	require.NoError(t, err)

	var seen []string
	for {
		batch, err := s.NextBatch()
		require.NoError(t, err)
		if len(batch) == 0 {
			break
		}
		for _, item := range append([]string(nil), batch...) {
			require.NoError(t, s.MarkCompleted(item))
			seen = append(seen, item)
		}
	}

	assert.ElementsMatch(t, original, seen)
}
