package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// releasesBodyLimit caps how much of a releases listing is read.
const releasesBodyLimit = 4 << 20

// release mirrors the fields we need from a GitHub-style releases
// listing entry.
type release struct {
	TagName string `json:"tag_name"`
}

// tagPattern recovers tag names from listings that are not well-formed
// JSON (truncated responses, non-GitHub endpoints).
var tagPattern = regexp.MustCompile(`"tag_name"\s*:\s*"([^"]+)"`)

// ListVersions fetches the releases listing and returns the known
// versions, newest first. The listing is parsed as JSON when possible
// and scanned leniently otherwise, so a half-broken endpoint still
// yields usable suggestions.
func (d *Downloader) ListVersions(ctx context.Context, releasesURL string) ([]string, error) {
	if releasesURL == "" {
		return nil, fmt.Errorf("no releases URL available")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, releasesURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create releases request: %w", err)
	}
	req.Header.Set("User-Agent", d.userAgent)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch releases: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{URL: releasesURL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, releasesBodyLimit))
	if err != nil {
		return nil, fmt.Errorf("read releases body: %w", err)
	}

	versions := parseVersions(body)
	if len(versions) == 0 {
		return nil, fmt.Errorf("no versions found at %s", releasesURL)
	}
	return versions, nil
}

// parseVersions extracts version strings from a releases listing body,
// preferring structured JSON and falling back to a tolerant scan.
func parseVersions(body []byte) []string {
	var tags []string

	var releases []release
	if err := json.Unmarshal(body, &releases); err == nil {
		for _, r := range releases {
			if r.TagName != "" {
				tags = append(tags, r.TagName)
			}
		}
	} else {
		for _, m := range tagPattern.FindAllSubmatch(body, -1) {
			tags = append(tags, string(m[1]))
		}
	}

	versions := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		v := strings.TrimPrefix(tag, "v")
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		versions = append(versions, v)
	}

	sortVersions(versions)
	return versions
}

// sortVersions orders semver versions newest first; tags that do not
// parse as semver sort after all semver tags, lexically descending.
func sortVersions(versions []string) {
	sort.SliceStable(versions, func(i, j int) bool {
		vi, errI := semver.NewVersion(versions[i])
		vj, errJ := semver.NewVersion(versions[j])
		switch {
		case errI == nil && errJ == nil:
			return vi.GreaterThan(vj)
		case errI == nil:
			return true
		case errJ == nil:
			return false
		default:
			return versions[i] > versions[j]
		}
	})
}
