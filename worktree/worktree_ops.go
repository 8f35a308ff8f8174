package worktree

import (
	"apiary/log"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// assistantSettings is the subset of .claude/settings.local.json apiary
// writes into a fresh worktree.
type assistantSettings struct {
	Permissions assistantPermissions `json:"permissions"`
}

type assistantPermissions struct {
	Allow []string `json:"allow"`
}

// autoApprovedCommands are granted inside every apiary worktree so the
// assistant doesn't stop on a permission prompt for routine VCS commands
// it needs to commit and push its own work.
var autoApprovedCommands = []string{
	"Bash(git:*)",
	"Bash(gh:*)",
}

func (g *Worktree) writeAssistantSettings() error {
	dir := filepath.Join(g.worktreePath, ".claude")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create .claude directory: %w", err)
	}

	settings := assistantSettings{Permissions: assistantPermissions{Allow: autoApprovedCommands}}
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal assistant settings: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, "settings.local.json"), data, 0644)
}

// branchExists reports whether branchName already exists in the
// repository rooted at repoPath, via go-git rather than shelling out.
func branchExists(repoPath, branchName string) (bool, error) {
	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		return false, fmt.Errorf("open repository: %w", err)
	}
	if _, err := repo.Reference(plumbing.NewBranchReferenceName(branchName), false); err != nil {
		return false, nil
	}
	return true, nil
}

// Setup creates the backing git worktree: from the derived branch if it
// already exists (a session being resumed), otherwise fresh off HEAD.
// apiary's tick engine is single-threaded and cooperative (spec.md §5),
// so unlike a background setup routine this runs to completion inline —
// callers that want it off the main loop wrap the call themselves.
func (g *Worktree) Setup() error {
	g.reportProgress("preparing worktree directory")

	worktreesDir, err := worktreeDirectory()
	if err != nil {
		return fmt.Errorf("get worktree directory: %w", err)
	}
	if err := os.MkdirAll(worktreesDir, 0755); err != nil {
		return fmt.Errorf("create worktree directory: %w", err)
	}

	resuming, err := branchExists(g.repoPath, g.branchName)
	if err != nil {
		return err
	}

	// A stale admin entry from a previous, uncleaned worktree at this
	// path would otherwise make `worktree add` below fail.
	_, _ = g.runGitCommand(g.repoPath, "worktree", "remove", "-f", g.worktreePath)

	if resuming {
		g.reportProgress(fmt.Sprintf("resuming worktree from existing branch %q", g.branchName))
		if _, err := g.runGitCommand(g.repoPath, "worktree", "add", g.worktreePath, g.branchName); err != nil {
			return fmt.Errorf("create worktree from branch %s: %w", g.branchName, err)
		}
		g.reportProgress("computing base commit for diff")
		if err := g.computeBaseCommitSHA(); err != nil {
			log.WarningLog.Printf("could not compute base commit SHA for %s: %v", g.branchName, err)
		}
	} else {
		g.reportProgress("reading HEAD commit")
		head, err := g.runGitCommand(g.repoPath, "rev-parse", "HEAD")
		if err != nil {
			if strings.Contains(err.Error(), "ambiguous argument 'HEAD'") || strings.Contains(err.Error(), "not a valid object name") {
				return fmt.Errorf("this appears to be a brand new repository: create an initial commit before creating a session")
			}
			return fmt.Errorf("read HEAD commit: %w", err)
		}
		g.baseCommitSHA = strings.TrimSpace(head)

		g.reportProgress(fmt.Sprintf("creating worktree with branch %q", g.branchName))
		if _, err := g.runGitCommand(g.repoPath, "worktree", "add", "-b", g.branchName, g.worktreePath, g.baseCommitSHA); err != nil {
			return fmt.Errorf("create worktree from commit %s: %w", g.baseCommitSHA, err)
		}
	}

	if err := g.writeAssistantSettings(); err != nil {
		log.WarningLog.Printf("failed to write assistant settings for %s: %v", g.sessionName, err)
	}
	g.reportProgress("worktree ready")
	return nil
}

// Remove removes the worktree directory but keeps the branch.
func (g *Worktree) Remove() error {
	if _, err := g.runGitCommand(g.repoPath, "worktree", "remove", "-f", g.worktreePath); err != nil {
		return fmt.Errorf("remove worktree: %w", err)
	}
	return nil
}

// Cleanup removes both the worktree and its branch, used by `drop`.
func (g *Worktree) Cleanup() error {
	var errs []error

	if _, statErr := os.Stat(g.worktreePath); statErr == nil {
		if _, err := g.runGitCommand(g.repoPath, "worktree", "remove", "-f", g.worktreePath); err != nil {
			errs = append(errs, err)
		}
	} else if !os.IsNotExist(statErr) {
		errs = append(errs, fmt.Errorf("stat worktree path: %w", statErr))
	}

	repo, err := git.PlainOpen(g.repoPath)
	switch {
	case err == git.ErrRepositoryNotExists:
		log.InfoLog.Printf("repository %s no longer exists, cleanup already complete", g.repoPath)
		return g.combineErrors(errs)
	case err != nil:
		errs = append(errs, fmt.Errorf("open repository for cleanup: %w", err))
		return g.combineErrors(errs)
	}

	branchRef := plumbing.NewBranchReferenceName(g.branchName)
	switch _, refErr := repo.Reference(branchRef, false); {
	case refErr == nil:
		if err := repo.Storer.RemoveReference(branchRef); err != nil {
			errs = append(errs, fmt.Errorf("remove branch %s: %w", g.branchName, err))
		}
	case refErr != plumbing.ErrReferenceNotFound:
		errs = append(errs, fmt.Errorf("check branch %s: %w", g.branchName, refErr))
	}

	if err := g.Prune(); err != nil {
		errs = append(errs, err)
	}
	return g.combineErrors(errs)
}

// Prune removes stale worktree administrative files left behind by
// worktrees whose directories were deleted outside apiary.
func (g *Worktree) Prune() error {
	if _, err := g.runGitCommand(g.repoPath, "worktree", "prune"); err != nil {
		return fmt.Errorf("prune worktrees: %w", err)
	}
	return nil
}

// IsBranchCheckedOut reports whether the worktree's branch is currently
// checked out anywhere in the repository, per `git worktree list`.
func (g *Worktree) IsBranchCheckedOut() (bool, error) {
	out, err := g.runGitCommand(g.repoPath, "worktree", "list", "--porcelain")
	if err != nil {
		return false, err
	}
	return strings.Contains(out, "branch refs/heads/"+g.branchName+"\n"), nil
}

// computeBaseCommitSHA finds the merge-base with the repository's
// default branch, used when resuming a Session so Diff() compares
// against the point the branch actually forked from.
func (g *Worktree) computeBaseCommitSHA() error {
	defaultBranch, err := g.findDefaultBranch()
	if err != nil {
		return fmt.Errorf("find default branch: %w", err)
	}
	mergeBase, err := g.runGitCommand(g.repoPath, "merge-base", g.branchName, defaultBranch)
	if err != nil {
		return fmt.Errorf("find merge-base: %w", err)
	}
	g.baseCommitSHA = strings.TrimSpace(mergeBase)
	return nil
}

func (g *Worktree) findDefaultBranch() (string, error) {
	if output, err := g.runGitCommand(g.repoPath, "symbolic-ref", "refs/remotes/origin/HEAD"); err == nil {
		parts := strings.Split(strings.TrimSpace(output), "/")
		if len(parts) > 0 {
			return parts[len(parts)-1], nil
		}
	}
	for _, candidate := range []string{"main", "master"} {
		if _, err := g.runGitCommand(g.repoPath, "rev-parse", "--verify", candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("could not find default branch (tried origin/HEAD, main, master)")
}

// PruneAll removes every worktree directory under apiary's worktree
// root and prunes git's administrative data for them.
func PruneAll() error {
	worktreesDir, err := worktreeDirectory()
	if err != nil {
		return fmt.Errorf("get worktree directory: %w", err)
	}

	entries, err := os.ReadDir(worktreesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read worktree directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			os.RemoveAll(filepath.Join(worktreesDir, entry.Name()))
		}
	}

	cmd := exec.Command("git", "worktree", "prune")
	_ = cmd.Run()
	return nil
}
