// Package worktree manages the git worktrees backing Sessions created
// with `create --worktree` (SPEC_FULL.md §5, supplementing spec.md's
// create sequence). It shells out to the git binary for the worktree
// porcelain (add/remove/prune have no go-git equivalent) and uses
// go-git only for the read-only reference lookups that don't need a
// subprocess: checking whether a branch already exists, and removing
// a branch ref during cleanup.
package worktree

import (
	"apiary/config"
	"apiary/log"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

func worktreeDirectory() (string, error) {
	configDir, err := config.GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "worktrees"), nil
}

// ProgressCallback is called with status messages during setup.
type ProgressCallback func(message string)

// Worktree manages the git worktree backing one Session.
type Worktree struct {
	repoPath      string
	worktreePath  string
	sessionName   string
	branchName    string
	baseCommitSHA string

	progressCallback ProgressCallback

	cachedDiffStats   *DiffStats
	diffCacheTime     time.Time
	diffCacheDuration time.Duration
}

// FromStorage reconstructs a Worktree from persisted fields, with no
// filesystem or git checks performed — callers are responsible for
// verifying it's still on disk before use.
func FromStorage(repoPath, worktreePath, sessionName, branchName, baseCommitSHA string) *Worktree {
	return &Worktree{
		repoPath:      repoPath,
		worktreePath:  worktreePath,
		sessionName:   sessionName,
		branchName:    branchName,
		baseCommitSHA: baseCommitSHA,
	}
}

// New derives a fresh Worktree for sessionName rooted at repoPath. The
// worktree directory name carries a random suffix rather than a
// timestamp, matching wordgen's preference for crypto/rand-derived
// uniqueness over wall-clock values.
func New(repoPath, sessionName string) (*Worktree, string, error) {
	cfg := config.Load()
	branchName := sanitizeBranchName(cfg.Git.BranchPrefix + sessionName)

	repoRoot, err := resolveRepoRoot(repoPath)
	if err != nil {
		return nil, "", err
	}

	worktreeDir, err := worktreeDirectory()
	if err != nil {
		return nil, "", err
	}

	suffix, err := randomSuffix()
	if err != nil {
		return nil, "", fmt.Errorf("generate worktree directory suffix: %w", err)
	}
	worktreePath := filepath.Join(worktreeDir, branchName+"_"+suffix)

	return &Worktree{
		repoPath:     repoRoot,
		sessionName:  sessionName,
		branchName:   branchName,
		worktreePath: worktreePath,
	}, branchName, nil
}

func resolveRepoRoot(repoPath string) (string, error) {
	absPath, err := filepath.Abs(repoPath)
	if err != nil {
		log.ErrorLog.Printf("worktree path abs error, falling back to repoPath %s: %s", repoPath, err)
		absPath = repoPath
	}
	return findGitRepoRoot(absPath)
}

func randomSuffix() (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func (g *Worktree) Path() string          { return g.worktreePath }
func (g *Worktree) Branch() string        { return g.branchName }
func (g *Worktree) RepoPath() string      { return g.repoPath }
func (g *Worktree) RepoName() string      { return filepath.Base(g.repoPath) }
func (g *Worktree) BaseCommitSHA() string { return g.baseCommitSHA }
func (g *Worktree) SessionName() string   { return g.sessionName }

func (g *Worktree) SetProgressCallback(cb ProgressCallback) { g.progressCallback = cb }

func (g *Worktree) reportProgress(message string) {
	if g.progressCallback != nil {
		g.progressCallback(message)
	}
}

// runGitCommand runs git with the given args rooted at dir, returning
// combined output on success or an error wrapping it on failure.
func (g *Worktree) runGitCommand(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return string(out), fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return string(out), nil
}

// combineErrors folds a best-effort cleanup sequence's errors into one,
// so a failure partway through Cleanup still reports every problem
// encountered rather than just the first.
func (g *Worktree) combineErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return fmt.Errorf("worktree cleanup for %s had %d error(s): %s", g.sessionName, len(errs), strings.Join(msgs, "; "))
}

func findGitRepoRoot(path string) (string, error) {
	cmd := exec.Command("git", "rev-parse", "--show-toplevel")
	cmd.Dir = path
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("%s is not inside a git repository: %w", path, err)
	}
	return strings.TrimSpace(string(out)), nil
}

var invalidBranchChars = regexp.MustCompile(`[^a-zA-Z0-9/_.-]+`)

// sanitizeBranchName strips characters git branch names reject (e.g.
// backslashes from Windows domain usernames like DOMAIN\user).
func sanitizeBranchName(name string) string {
	return invalidBranchChars.ReplaceAllString(name, "-")
}
