package git

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitbrief/gitbrief/internal/domain"
)

// testLogger is a minimal logger for testing that doesn't output anything.
type testLogger struct{}

func (l *testLogger) Debug(_ context.Context, _ string, _ map[string]interface{}) {}
func (l *testLogger) Warn(_ context.Context, _ string, _ map[string]interface{})  {}

// setupTestRepo creates a temporary git repository for testing.
// Returns the path to the repository and a cleanup function.
func setupTestRepo(t *testing.T) (string, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "gitbrief-test-*")
	require.NoError(t, err)

	cleanup := func() {
		os.RemoveAll(tmpDir)
	}

	// Initialize git repo
	runGit(t, tmpDir, "init")
	runGit(t, tmpDir, "config", "user.email", "test@example.com")
	runGit(t, tmpDir, "config", "user.name", "Test User")

	// Create initial commit
	testFile := filepath.Join(tmpDir, "test.txt")
	require.NoError(t, os.WriteFile(testFile, []byte("initial content"), 0o644))
	runGit(t, tmpDir, "add", ".")
	runGit(t, tmpDir, "commit", "-m", "Initial commit")

	return tmpDir, cleanup
}

// runGit executes a git command in the given directory.
func runGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %v failed: %v\nOutput: %s", args, err, output)
	}
}

// getGitOutput executes a git command and returns its trimmed stdout.
func getGitOutput(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	output, err := cmd.Output()
	require.NoError(t, err, "git %v failed", args)
	return strings.TrimSpace(string(output))
}

// commitFile writes content to a file and commits it.
func commitFile(t *testing.T, dir, name, content, message string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	runGit(t, dir, "add", ".")
	runGit(t, dir, "commit", "-m", message)
}

func newTestSource(t *testing.T, path string) *GoGitSource {
	t.Helper()
	source, err := NewGoGitSource(path, &testLogger{})
	require.NoError(t, err)
	return source
}

func TestNewGoGitSource_Success(t *testing.T) {
	repoPath, cleanup := setupTestRepo(t)
	defer cleanup()

	source, err := NewGoGitSource(repoPath, &testLogger{})

	require.NoError(t, err)
	require.NotNil(t, source)
	assert.Equal(t, repoPath, source.path)
	assert.NoError(t, source.Close())
}

func TestNewGoGitSource_NotARepository(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "gitbrief-notrepo-*")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	source, err := NewGoGitSource(tmpDir, &testLogger{})

	require.Error(t, err)
	assert.Nil(t, source)
	assert.ErrorIs(t, err, domain.ErrRepositoryNotFound)
	assert.Contains(t, err.Error(), tmpDir)
}

func TestExtract_History_OrderAndFields(t *testing.T) {
	repoPath, cleanup := setupTestRepo(t)
	defer cleanup()
	commitFile(t, repoPath, "test.txt", "second content", "Second commit")
	commitFile(t, repoPath, "test.txt", "third content", "Third commit")

	source := newTestSource(t, repoPath)
	records, err := source.Extract(context.Background(), domain.ExtractFilter{
		Mode: domain.ModeHistory,
	})

	require.NoError(t, err)
	require.Len(t, records, 3)

	// Most recent first.
	assert.Equal(t, "Third commit", records[0].Message)
	assert.Equal(t, "Second commit", records[1].Message)
	assert.Equal(t, "Initial commit", records[2].Message)

	first := records[0]
	assert.Len(t, first.Hash, 40)
	assert.Len(t, first.ShortHash, 7)
	assert.True(t, strings.HasPrefix(first.Hash, first.ShortHash))
	assert.Equal(t, "Test User", first.Author)
	require.NotNil(t, first.Date)
	assert.WithinDuration(t, time.Now(), *first.Date, time.Minute)
}

func TestExtract_History_Limit(t *testing.T) {
	repoPath, cleanup := setupTestRepo(t)
	defer cleanup()
	commitFile(t, repoPath, "test.txt", "second content", "Second commit")
	commitFile(t, repoPath, "test.txt", "third content", "Third commit")

	source := newTestSource(t, repoPath)
	records, err := source.Extract(context.Background(), domain.ExtractFilter{
		Mode:  domain.ModeHistory,
		Limit: 2,
	})

	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Third commit", records[0].Message)
	assert.Equal(t, "Second commit", records[1].Message)
}

func TestExtract_History_RootCommitDiff(t *testing.T) {
	repoPath, cleanup := setupTestRepo(t)
	defer cleanup()

	source := newTestSource(t, repoPath)
	records, err := source.Extract(context.Background(), domain.ExtractFilter{
		Mode: domain.ModeHistory,
	})

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, domain.InitialCommitBody, records[0].Diff)
}

func TestExtract_History_DiffContent(t *testing.T) {
	repoPath, cleanup := setupTestRepo(t)
	defer cleanup()
	commitFile(t, repoPath, "test.txt", "updated content\n", "Update test file")
	commitFile(t, repoPath, "added.txt", "brand new\n", "Add second file")

	source := newTestSource(t, repoPath)
	records, err := source.Extract(context.Background(), domain.ExtractFilter{
		Mode: domain.ModeHistory,
	})

	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Contains(t, records[0].Diff, "--- NEW FILE: added.txt ---")
	assert.Contains(t, records[0].Diff, "+brand new")
	assert.Contains(t, records[1].Diff, "--- FILE: test.txt ---")
	assert.Contains(t, records[1].Diff, "+updated content")
}

func TestExtract_History_DeletedFile(t *testing.T) {
	repoPath, cleanup := setupTestRepo(t)
	defer cleanup()
	runGit(t, repoPath, "rm", "test.txt")
	runGit(t, repoPath, "commit", "-m", "Remove test file")

	source := newTestSource(t, repoPath)
	records, err := source.Extract(context.Background(), domain.ExtractFilter{
		Mode:  domain.ModeHistory,
		Limit: 1,
	})

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Contains(t, records[0].Diff, "--- DELETED FILE: test.txt ---")
}

func TestExtract_History_AuthorFilter(t *testing.T) {
	repoPath, cleanup := setupTestRepo(t)
	defer cleanup()
	require.NoError(t, os.WriteFile(filepath.Join(repoPath, "test.txt"), []byte("alice content"), 0o644))
	runGit(t, repoPath, "add", ".")
	runGit(t, repoPath,
		"-c", "user.name=Alice Smith",
		"-c", "user.email=alice@example.com",
		"commit", "-m", "Alice commit")

	source := newTestSource(t, repoPath)

	tests := []struct {
		name   string
		author string
		want   []string
	}{
		{
			name:   "matches author name",
			author: "Alice",
			want:   []string{"Alice commit"},
		},
		{
			name:   "matches author email",
			author: "alice@example",
			want:   []string{"Alice commit"},
		},
		{
			name:   "matches other author",
			author: "Test User",
			want:   []string{"Initial commit"},
		},
		{
			name:   "no match",
			author: "nobody",
			want:   []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := source.Extract(context.Background(), domain.ExtractFilter{
				Mode:   domain.ModeHistory,
				Author: tt.author,
			})

			require.NoError(t, err)
			messages := make([]string, 0, len(records))
			for _, r := range records {
				messages = append(messages, r.Message)
			}
			assert.Equal(t, tt.want, messages)
		})
	}
}

func TestExtract_History_TimeWindow(t *testing.T) {
	repoPath, cleanup := setupTestRepo(t)
	defer cleanup()

	source := newTestSource(t, repoPath)
	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	records, err := source.Extract(context.Background(), domain.ExtractFilter{
		Mode:  domain.ModeHistory,
		Since: &past,
		Until: &future,
	})
	require.NoError(t, err)
	assert.Len(t, records, 1)

	records, err = source.Extract(context.Background(), domain.ExtractFilter{
		Mode:  domain.ModeHistory,
		Until: &past,
	})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestExtract_Hashes(t *testing.T) {
	repoPath, cleanup := setupTestRepo(t)
	defer cleanup()
	commitFile(t, repoPath, "test.txt", "second content", "Second commit")

	headHash := getGitOutput(t, repoPath, "rev-parse", "HEAD")
	source := newTestSource(t, repoPath)

	records, err := source.Extract(context.Background(), domain.ExtractFilter{
		Mode:   domain.ModeHashes,
		Hashes: []string{headHash, "HEAD~1"},
	})

	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, headHash, records[0].Hash)
	assert.Equal(t, "Second commit", records[0].Message)
	assert.Equal(t, "Initial commit", records[1].Message)
}

func TestExtract_Hashes_NotFound(t *testing.T) {
	repoPath, cleanup := setupTestRepo(t)
	defer cleanup()

	source := newTestSource(t, repoPath)
	records, err := source.Extract(context.Background(), domain.ExtractFilter{
		Mode:   domain.ModeHashes,
		Hashes: []string{"deadbeefdeadbeefdeadbeefdeadbeefdeadbeef"},
	})

	require.Error(t, err)
	assert.Nil(t, records)
	assert.ErrorIs(t, err, domain.ErrCommitNotFound)
}

func TestExtract_Staged_Empty(t *testing.T) {
	repoPath, cleanup := setupTestRepo(t)
	defer cleanup()

	source := newTestSource(t, repoPath)
	records, err := source.Extract(context.Background(), domain.ExtractFilter{
		Mode: domain.ModeStaged,
	})

	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestExtract_Staged_NewFile(t *testing.T) {
	repoPath, cleanup := setupTestRepo(t)
	defer cleanup()
	require.NoError(t, os.WriteFile(filepath.Join(repoPath, "new.txt"), []byte("hello staged\n"), 0o644))
	runGit(t, repoPath, "add", "new.txt")

	source := newTestSource(t, repoPath)
	records, err := source.Extract(context.Background(), domain.ExtractFilter{
		Mode: domain.ModeStaged,
	})

	require.NoError(t, err)
	require.Len(t, records, 1)

	record := records[0]
	assert.Equal(t, domain.StagedHash, record.Hash)
	assert.Equal(t, domain.StagedShortHash, record.ShortHash)
	assert.Equal(t, domain.StagedAuthor, record.Author)
	assert.Equal(t, domain.StagedMessage, record.Message)
	assert.Nil(t, record.Date)
	assert.Contains(t, record.Diff, "--- NEW FILE: new.txt ---")
	assert.Contains(t, record.Diff, "+hello staged")
}

func TestExtract_Staged_ModifiedAndDeleted(t *testing.T) {
	repoPath, cleanup := setupTestRepo(t)
	defer cleanup()
	commitFile(t, repoPath, "doomed.txt", "short lived\n", "Add doomed file")

	require.NoError(t, os.WriteFile(filepath.Join(repoPath, "test.txt"), []byte("updated content"), 0o644))
	runGit(t, repoPath, "add", "test.txt")
	runGit(t, repoPath, "rm", "doomed.txt")

	source := newTestSource(t, repoPath)
	records, err := source.Extract(context.Background(), domain.ExtractFilter{
		Mode: domain.ModeStaged,
	})

	require.NoError(t, err)
	require.Len(t, records, 1)

	diff := records[0].Diff
	assert.Contains(t, diff, "--- FILE: test.txt ---")
	assert.Contains(t, diff, "-initial content")
	assert.Contains(t, diff, "+updated content")
	assert.Contains(t, diff, "--- DELETED FILE: doomed.txt ---")
	assert.Contains(t, diff, "-short lived")
}

func TestExtract_Staged_UnbornHead(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "gitbrief-unborn-*")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	runGit(t, tmpDir, "init")
	runGit(t, tmpDir, "config", "user.email", "test@example.com")
	runGit(t, tmpDir, "config", "user.name", "Test User")
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "first.txt"), []byte("very first\n"), 0o644))
	runGit(t, tmpDir, "add", ".")

	source := newTestSource(t, tmpDir)
	records, err := source.Extract(context.Background(), domain.ExtractFilter{
		Mode: domain.ModeStaged,
	})

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Contains(t, records[0].Diff, "--- NEW FILE: first.txt ---")
}

func TestExtract_History_ContextCancellation(t *testing.T) {
	repoPath, cleanup := setupTestRepo(t)
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	source := newTestSource(t, repoPath)
	_, err := source.Extract(ctx, domain.ExtractFilter{Mode: domain.ModeHistory})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
