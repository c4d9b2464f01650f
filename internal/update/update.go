// Package update checks GitHub for a newer tcprtt release.
package update

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/go-github/v45/github"
)

const (
	owner        = "wkitt4"
	repo         = "tcprtt"
	checkTimeout = 10 * time.Second
)

var versionPattern = regexp.MustCompile(`^v?(\d+\.\d+\.\d+)$`)

// ReleaseGetter is the part of the GitHub API used here.
type ReleaseGetter interface {
	GetLatestRelease(ctx context.Context, owner, repo string) (*github.RepositoryRelease, *github.Response, error)
}

// NewReleaseGetter returns an unauthenticated GitHub client.
// Unauthenticated requests from the same IP are limited to 60 per hour.
func NewReleaseGetter() ReleaseGetter {
	return github.NewClient(&http.Client{Timeout: checkTimeout}).Repositories
}

// Result describes how the running version relates to the latest release.
type Result struct {
	Current string
	Latest  string
	TagName string
	// Comparison is negative when a newer release exists, positive when
	// the running version is ahead and zero when they match.
	Comparison int
}

// URL is where the latest release can be downloaded.
func (r Result) URL() string {
	return fmt.Sprintf("https://github.com/%s/%s/releases/tag/%s", owner, repo, r.TagName)
}

// Messages renders the result for PrintInfo.
func (r Result) Messages() []string {
	switch {
	case r.Comparison < 0:
		return []string{
			fmt.Sprintf("Found newer version %s", r.Latest),
			"Please update tcprtt from the URL below:",
			r.URL(),
		}
	case r.Comparison > 0:
		return []string{fmt.Sprintf("Current version %s is newer than the latest release %s", r.Current, r.Latest)}
	default:
		return []string{fmt.Sprintf("You're using the latest version: %s", r.Current)}
	}
}

// Check fetches the latest release and compares it with current.
func Check(ctx context.Context, client ReleaseGetter, current string) (Result, error) {
	release, _, err := client.GetLatestRelease(ctx, owner, repo)
	if err != nil {
		return Result{}, fmt.Errorf("failed to check for updates: %w", err)
	}

	tag := release.GetTagName()
	latest := versionPattern.FindStringSubmatch(tag)
	if len(latest) == 0 {
		return Result{}, fmt.Errorf("failed to check for updates, the version name does not match the rule: %s", tag)
	}

	return Result{
		Current:    current,
		Latest:     latest[1],
		TagName:    tag,
		Comparison: CompareVersions(strings.TrimPrefix(current, "v"), latest[1]),
	}, nil
}

// CompareVersions compares dotted numeric versions.
func CompareVersions(v1, v2 string) int {
	parts1 := strings.Split(v1, ".")
	parts2 := strings.Split(v2, ".")

	for i := 0; i < len(parts1) && i < len(parts2); i++ {
		n1, _ := strconv.Atoi(parts1[i])
		n2, _ := strconv.Atoi(parts2[i])

		if n1 < n2 {
			return -1
		}
		if n1 > n2 {
			return 1
		}
	}

	// for cases in which version numbers differ in length
	if len(parts1) < len(parts2) {
		return -1
	}

	if len(parts1) > len(parts2) {
		return 1
	}

	return 0
}
