package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"farmbot-server/fbos"

	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/repeater"
	"github.com/go-pkgz/repeater/strategy"
)

// Release is the newest FarmBot OS available on each channel.
type Release struct {
	Stable     *string   `json:"current_os_version"`
	Beta       *string   `json:"current_beta_os_version"`
	BetaCommit *string   `json:"current_beta_os_commit"`
	FetchedAt  time.Time `json:"fetched_at"`
}

type ghRelease struct {
	TagName         string `json:"tag_name"`
	TargetCommitish string `json:"target_commitish"`
	Prerelease      bool   `json:"prerelease"`
	Draft           bool   `json:"draft"`
}

// ReleaseChecker polls a GitHub style releases feed.
type ReleaseChecker struct {
	URL      string
	Client   *http.Client
	Interval time.Duration
	Strategy strategy.Interface

	mu      sync.RWMutex
	latest  Release
	fetched bool
}

const defaultReleasesInterval = time.Hour

func NewReleaseChecker(url string, interval time.Duration) *ReleaseChecker {
	if interval <= 0 {
		interval = defaultReleasesInterval
	}
	return &ReleaseChecker{
		URL:      url,
		Client:   &http.Client{Timeout: 10 * time.Second},
		Interval: interval,
		Strategy: &strategy.Backoff{Repeats: 3, Duration: time.Second, Factor: 2, Jitter: true},
	}
}

// Start refreshes immediately and then on every interval until ctx is done.
func (rc *ReleaseChecker) Start(ctx context.Context) {
	interval := rc.Interval
	if interval <= 0 {
		interval = defaultReleasesInterval
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			if err := rc.Refresh(ctx); err != nil {
				log.Printf("[WARN] can't refresh FarmBot OS releases: %v", err)
			}
			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Refresh fetches the feed, retrying with backoff. A failure keeps the previous result.
func (rc *ReleaseChecker) Refresh(ctx context.Context) error {
	var releases []ghRelease
	err := repeater.New(rc.Strategy).Do(ctx, func() error {
		var ferr error
		releases, ferr = rc.fetch(ctx)
		return ferr
	})
	if err != nil {
		return err
	}

	latest := pickReleases(releases)
	latest.FetchedAt = time.Now()
	rc.mu.Lock()
	rc.latest, rc.fetched = latest, true
	rc.mu.Unlock()
	log.Printf("[DEBUG] FarmBot OS releases: stable=%s beta=%s", str(latest.Stable), str(latest.Beta))
	return nil
}

// Latest returns the last fetched release and whether any fetch succeeded.
func (rc *ReleaseChecker) Latest() (Release, bool) {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	return rc.latest, rc.fetched
}

func (rc *ReleaseChecker) fetch(ctx context.Context) ([]ghRelease, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rc.URL, http.NoBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := rc.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("releases server returned %d", resp.StatusCode)
	}
	var releases []ghRelease
	if err := json.NewDecoder(resp.Body).Decode(&releases); err != nil {
		return nil, fmt.Errorf("can't decode releases: %w", err)
	}
	return releases, nil
}

// pickReleases selects the highest stable and the highest pre-release version.
func pickReleases(releases []ghRelease) Release {
	var res Release
	for _, r := range releases {
		if r.Draft {
			continue
		}
		version := strings.TrimPrefix(strings.TrimSpace(r.TagName), "v")
		if version == "" {
			continue
		}
		if !r.Prerelease {
			if res.Stable == nil || fbos.SemverCompare(version, *res.Stable) == fbos.LeftIsGreater {
				res.Stable = &version
			}
			continue
		}
		if res.Beta == nil || fbos.SemverCompare(version, *res.Beta) == fbos.LeftIsGreater {
			commit := r.TargetCommitish
			res.Beta, res.BetaCommit = &version, &commit
		}
	}
	return res
}

func str(s *string) string {
	if s == nil {
		return "<none>"
	}
	return *s
}
