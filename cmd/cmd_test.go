package cmd

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run executes the root command against a throwaway database.
func run(t *testing.T, db string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("WHISPER_API_URL", "http://127.0.0.1:1")
	t.Setenv("WHISPER_USER", "ana")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append(args, "--db", db))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, filepath.Join(t.TempDir(), "w.db"), "version")
	require.NoError(t, err)
	assert.Contains(t, out, "whisper")
}

func TestConfig_SetProviderPersists(t *testing.T) {
	db := filepath.Join(t.TempDir(), "w.db")

	out, err := run(t, db, "config", "set-provider", "openai")
	require.NoError(t, err)
	assert.Contains(t, out, "gpt-3.5-turbo")

	out, err = run(t, db, "config", "set-key", "sk-test-1234")
	require.NoError(t, err)
	assert.NotContains(t, out, "sk-test-1234")

	out, err = run(t, db, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "OpenAI")
	assert.Contains(t, out, "1234")
	assert.NotContains(t, out, "sk-test-1234")
}

func TestConfig_UnknownProvider(t *testing.T) {
	_, err := run(t, filepath.Join(t.TempDir(), "w.db"), "config", "set-provider", "skynet")
	assert.Error(t, err)
}

func TestConfig_LocalProviderNeedsNoKey(t *testing.T) {
	db := filepath.Join(t.TempDir(), "w.db")
	_, err := run(t, db, "config", "set-provider", "ollama")
	require.NoError(t, err)

	out, err := run(t, db, "config", "verify")
	require.NoError(t, err)
	assert.Contains(t, out, "gemma3")
}

func TestHistory_Empty(t *testing.T) {
	db := filepath.Join(t.TempDir(), "w.db")

	out, err := run(t, db, "history", "quizzes")
	require.NoError(t, err)
	assert.Contains(t, out, "No quizzes yet.")

	out, err = run(t, db, "history", "usage")
	require.NoError(t, err)
	assert.Contains(t, out, "No requests recorded yet.")
}

func TestQuiz_RejectsBadFlags(t *testing.T) {
	db := filepath.Join(t.TempDir(), "w.db")

	_, err := run(t, db, "quiz", "--difficulty", "brutal")
	assert.ErrorContains(t, err, "difficulty")

	_, err = run(t, db, "quiz", "--difficulty", "easy", "--count", "99")
	assert.ErrorContains(t, err, "count")
}

func TestSyllabus_RejectsNonPDF(t *testing.T) {
	_, err := run(t, filepath.Join(t.TempDir(), "w.db"), "syllabus", "notes.txt")
	assert.ErrorContains(t, err, ".pdf")
}
