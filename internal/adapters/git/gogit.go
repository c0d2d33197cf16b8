// Package git provides adapters for interacting with local Git repositories.
// This package implements the domain.ChangeSource interface using go-git/v5.
package git

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/go-git/go-git/v5/utils/merkletrie"

	"github.com/gitbrief/gitbrief/internal/domain"
)

// Logger defines the logging interface for the git adapter.
// This interface enables dependency injection and testability.
type Logger interface {
	Debug(ctx context.Context, msg string, fields map[string]interface{})
	Warn(ctx context.Context, msg string, fields map[string]interface{})
}

// GoGitSource implements domain.ChangeSource using go-git/v5. It extracts
// staged or historical change-sets from a local repository and renders each
// one through the diff formatter.
type GoGitSource struct {
	repo   *gogit.Repository
	path   string
	logger Logger
}

// NewGoGitSource creates a GoGitSource for the given path. The path can be
// either a working directory or a bare repository. Returns
// domain.ErrRepositoryNotFound if the path is not a valid Git repository.
func NewGoGitSource(path string, log Logger) (*GoGitSource, error) {
	repo, err := gogit.PlainOpen(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrRepositoryNotFound, path)
	}

	return &GoGitSource{
		repo:   repo,
		path:   path,
		logger: log,
	}, nil
}

// Extract produces an ordered sequence of CommitRecords for the filter.
// Per-commit diff failures are folded into the record's Diff body; only
// repository-level failures abort the call.
func (s *GoGitSource) Extract(ctx context.Context, filter domain.ExtractFilter) ([]domain.CommitRecord, error) {
	switch filter.Mode {
	case domain.ModeStaged:
		return s.extractStaged(ctx)
	case domain.ModeHashes:
		return s.extractHashes(ctx, filter.Hashes)
	default:
		return s.extractHistory(ctx, filter)
	}
}

// Close releases any resources held by the source.
// For go-git, this is a no-op as the repository doesn't hold persistent resources.
func (s *GoGitSource) Close() error {
	return nil
}

// extractHistory walks commits from HEAD backward, applying the filter set,
// and emits one record per visited commit with its first-parent diff.
func (s *GoGitSource) extractHistory(ctx context.Context, filter domain.ExtractFilter) ([]domain.CommitRecord, error) {
	head, err := s.repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to get HEAD: %w", err)
	}

	iter, err := s.repo.Log(&gogit.LogOptions{From: head.Hash()})
	if err != nil {
		return nil, fmt.Errorf("failed to walk commit history: %w", err)
	}

	records := []domain.CommitRecord{}
	err = iter.ForEach(func(c *object.Commit) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if filter.Limit > 0 && len(records) >= filter.Limit {
			return storer.ErrStop
		}

		when := c.Committer.When
		if filter.Since != nil && when.Before(*filter.Since) {
			return nil
		}
		if filter.Until != nil && when.After(*filter.Until) {
			return nil
		}
		if filter.Author != "" &&
			!strings.Contains(c.Author.Name, filter.Author) &&
			!strings.Contains(c.Author.Email, filter.Author) {
			return nil
		}

		records = append(records, s.recordFromCommit(ctx, c))
		return nil
	})
	if err != nil && err != storer.ErrStop {
		return nil, fmt.Errorf("failed to walk commit history: %w", err)
	}

	s.logger.Debug(ctx, "extracted history", map[string]interface{}{
		"path":    s.path,
		"records": len(records),
	})

	return records, nil
}

// extractHashes hydrates an explicit list of commit revisions in the given
// order. Unlike history mode, a missing commit here is a caller mistake and
// aborts the call.
func (s *GoGitSource) extractHashes(ctx context.Context, hashes []string) ([]domain.CommitRecord, error) {
	records := make([]domain.CommitRecord, 0, len(hashes))
	for _, h := range hashes {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		resolved, err := s.repo.ResolveRevision(plumbing.Revision(h))
		if err != nil {
			return nil, fmt.Errorf("%w: %s", domain.ErrCommitNotFound, h)
		}
		commit, err := s.repo.CommitObject(*resolved)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", domain.ErrCommitNotFound, h)
		}
		records = append(records, s.recordFromCommit(ctx, commit))
	}
	return records, nil
}

// extractStaged computes the index-vs-HEAD diff. An empty diff yields an
// empty record sequence, signalling "nothing staged" rather than emitting a
// record with an empty body.
func (s *GoGitSource) extractStaged(ctx context.Context) ([]domain.CommitRecord, error) {
	changes, err := s.stagedChanges(ctx)
	if err != nil {
		return nil, err
	}

	if len(changes) == 0 {
		s.logger.Debug(ctx, "no staged changes", map[string]interface{}{"path": s.path})
		return []domain.CommitRecord{}, nil
	}

	return []domain.CommitRecord{{
		Hash:      domain.StagedHash,
		ShortHash: domain.StagedShortHash,
		Author:    domain.StagedAuthor,
		Message:   domain.StagedMessage,
		Diff:      FormatChanges(changes),
	}}, nil
}

// stagedChanges compares the index against the HEAD tree. When HEAD has no
// prior history the comparison runs against an empty tree, so every index
// entry appears as a new file.
func (s *GoGitSource) stagedChanges(ctx context.Context) ([]FileChange, error) {
	idx, err := s.repo.Storer.Index()
	if err != nil {
		return nil, fmt.Errorf("failed to read index: %w", err)
	}

	headFiles, err := s.headFiles(ctx)
	if err != nil {
		return nil, err
	}

	var changes []FileChange
	seen := make(map[string]bool, len(idx.Entries))

	for _, entry := range idx.Entries {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		seen[entry.Name] = true
		headFile, tracked := headFiles[entry.Name]
		if tracked && headFile.Hash == entry.Hash {
			continue
		}

		fc := FileChange{Path: entry.Name, New: !tracked}
		newContent, newBinary, err := s.blobContent(entry.Hash)
		if err != nil {
			fc.Err = err
			changes = append(changes, fc)
			continue
		}

		oldContent := ""
		oldBinary := false
		if tracked {
			if oldBinary, _ = headFile.IsBinary(); !oldBinary {
				if oldContent, err = headFile.Contents(); err != nil {
					fc.Err = err
					changes = append(changes, fc)
					continue
				}
			}
		}

		// Binary content is treated as opaque; the formatter substitutes
		// its placeholder for a nil diff.
		if !newBinary && !oldBinary {
			fc.Diff = renderContentDiff(oldContent, newContent)
		}
		changes = append(changes, fc)
	}

	// Files present in HEAD but absent from the index were staged for
	// deletion. Sorted for a deterministic enumeration order.
	var deleted []string
	for name := range headFiles {
		if !seen[name] {
			deleted = append(deleted, name)
		}
	}
	sort.Strings(deleted)

	for _, name := range deleted {
		fc := FileChange{Path: name, Deleted: true}
		if binary, _ := headFiles[name].IsBinary(); !binary {
			if oldContent, err := headFiles[name].Contents(); err == nil {
				fc.Diff = renderContentDiff(oldContent, "")
			} else {
				fc.Err = err
			}
		}
		changes = append(changes, fc)
	}

	return changes, nil
}

// headFiles returns the HEAD tree contents keyed by path, or an empty map
// when HEAD is unborn.
func (s *GoGitSource) headFiles(ctx context.Context) (map[string]*object.File, error) {
	files := map[string]*object.File{}

	head, err := s.repo.Head()
	if err != nil {
		// Unborn HEAD: diff against an empty tree.
		s.logger.Debug(ctx, "HEAD has no history; diffing against empty tree", map[string]interface{}{
			"path": s.path,
		})
		return files, nil
	}

	commit, err := s.repo.CommitObject(head.Hash())
	if err != nil {
		return nil, fmt.Errorf("failed to get commit object for HEAD: %w", err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to get HEAD tree: %w", err)
	}

	err = tree.Files().ForEach(func(f *object.File) error {
		files[f.Name] = f
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate HEAD tree: %w", err)
	}

	return files, nil
}

// blobContent reads a blob from the object store, reporting binary content
// via git's NUL-byte heuristic.
func (s *GoGitSource) blobContent(hash plumbing.Hash) (string, bool, error) {
	blob, err := s.repo.BlobObject(hash)
	if err != nil {
		return "", false, err
	}

	r, err := blob.Reader()
	if err != nil {
		return "", false, err
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return "", false, err
	}
	if bytes.IndexByte(data, 0) != -1 {
		return "", true, nil
	}
	return string(data), false, nil
}

// recordFromCommit normalizes one commit into a CommitRecord. Diff
// computation failures are recorded in the body and never abort extraction.
func (s *GoGitSource) recordFromCommit(ctx context.Context, c *object.Commit) domain.CommitRecord {
	when := c.Committer.When
	return domain.CommitRecord{
		Hash:      c.Hash.String(),
		ShortHash: c.Hash.String()[:domain.ShortHashLength],
		Author:    c.Author.Name,
		Date:      &when,
		Message:   strings.TrimSpace(c.Message),
		Diff:      s.commitDiff(ctx, c),
	}
}

// commitDiff renders the diff between a commit and its first parent. Root
// commits produce the fixed initial-commit body instead of a diff.
func (s *GoGitSource) commitDiff(ctx context.Context, c *object.Commit) string {
	if c.NumParents() == 0 {
		return domain.InitialCommitBody
	}

	parent, err := c.Parent(0)
	if err != nil {
		s.logger.Warn(ctx, "failed to resolve parent commit", map[string]interface{}{
			"hash":  c.Hash.String(),
			"error": err.Error(),
		})
		return "Error extracting diff: " + err.Error()
	}

	changes, err := s.treeChanges(parent, c)
	if err != nil {
		s.logger.Warn(ctx, "failed to diff commit against parent", map[string]interface{}{
			"hash":  c.Hash.String(),
			"error": err.Error(),
		})
		return "Error extracting diff: " + err.Error()
	}

	return FormatChanges(changes)
}

// treeChanges converts the tree comparison between two commits into file
// change descriptors. Per-entry patch failures are carried on the entry so
// one malformed file never prevents the rest from being reported.
func (s *GoGitSource) treeChanges(parent, c *object.Commit) ([]FileChange, error) {
	parentTree, err := parent.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to get parent tree: %w", err)
	}
	tree, err := c.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to get commit tree: %w", err)
	}

	treeDiff, err := object.DiffTree(parentTree, tree)
	if err != nil {
		return nil, fmt.Errorf("failed to diff trees: %w", err)
	}

	changes := make([]FileChange, 0, len(treeDiff))
	for _, ch := range treeDiff {
		fc := FileChange{Path: changePath(ch)}

		action, err := ch.Action()
		if err != nil {
			fc.Err = err
			changes = append(changes, fc)
			continue
		}
		switch action {
		case merkletrie.Insert:
			fc.New = true
		case merkletrie.Delete:
			fc.Deleted = true
		}

		patch, err := ch.Patch()
		if err != nil {
			fc.Err = err
			changes = append(changes, fc)
			continue
		}
		fc.Diff = []byte(strings.TrimSpace(patch.String()))
		changes = append(changes, fc)
	}

	return changes, nil
}

// changePath prefers the post-change path, as renames and additions carry
// the current name on the To side.
func changePath(ch *object.Change) string {
	if ch.To.Name != "" {
		return ch.To.Name
	}
	return ch.From.Name
}
