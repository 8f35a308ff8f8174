package worktree

import (
	"strings"
	"time"
)

const defaultDiffCacheDuration = 5 * time.Second

// DiffStats holds uncommitted-change statistics for a Worktree, shown in
// the UI Renderer's Detail panel (see SPEC_FULL.md §5).
type DiffStats struct {
	Content string
	Added   int
	Removed int
	Error   error
}

func (d *DiffStats) IsEmpty() bool {
	return d.Added == 0 && d.Removed == 0 && d.Content == ""
}

func (g *Worktree) isDirty() (bool, error) {
	output, err := g.runGitCommand(g.worktreePath, "status", "--porcelain")
	if err != nil {
		return false, err
	}
	return len(strings.TrimSpace(output)) > 0, nil
}

// Diff returns the diff between the worktree and its base commit, cached
// for up to 5 seconds to bound the cost of polling it every
// selective-refresh cycle.
func (g *Worktree) Diff() *DiffStats {
	if g.diffCacheDuration == 0 {
		g.diffCacheDuration = defaultDiffCacheDuration
	}

	if g.cachedDiffStats != nil && time.Since(g.diffCacheTime) < g.diffCacheDuration {
		if g.cachedDiffStats.IsEmpty() {
			if dirty, err := g.isDirty(); err == nil && !dirty {
				return g.cachedDiffStats
			}
		} else {
			return g.cachedDiffStats
		}
	}

	stats := g.diffUncached()
	g.cachedDiffStats = stats
	g.diffCacheTime = time.Now()
	return stats
}

func (g *Worktree) diffUncached() *DiffStats {
	stats := &DiffStats{}

	if _, err := g.runGitCommand(g.worktreePath, "add", "-N", "."); err != nil {
		stats.Error = err
		return stats
	}

	content, err := g.runGitCommand(g.worktreePath, "--no-pager", "diff", g.BaseCommitSHA())
	if err != nil {
		stats.Error = err
		return stats
	}

	for _, line := range strings.Split(content, "\n") {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
		case strings.HasPrefix(line, "+"):
			stats.Added++
		case strings.HasPrefix(line, "-"):
			stats.Removed++
		}
	}
	stats.Content = content
	return stats
}

// InvalidateDiffCache forces the next Diff() call to run git again.
func (g *Worktree) InvalidateDiffCache() {
	g.cachedDiffStats = nil
	g.diffCacheTime = time.Time{}
}
