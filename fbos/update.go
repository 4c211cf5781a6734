package fbos

import (
	"math"
	"strconv"
)

// UpdateButton is the state of the FarmBot OS update control.
type UpdateButton int

const (
	UpToDate UpdateButton = iota
	NeedsUpdate
	Unknown
	None
)

func (b UpdateButton) String() string {
	switch b {
	case UpToDate:
		return "up_to_date"
	case NeedsUpdate:
		return "needs_update"
	case Unknown:
		return "unknown"
	default:
		return "none"
	}
}

// OTAJob is the job name FarmBot OS uses for its own download.
const OTAJob = "FBOS_OTA"

// JobProgress is a long running bot job as reported in bot state.
type JobProgress struct {
	Status  string  `json:"status"` // working | complete | error
	Unit    string  `json:"unit"`   // percent | bytes
	Percent float64 `json:"percent"`
	Bytes   float64 `json:"bytes"`
}

// UpdateInput gathers release, settings and bot state. Nil strings are unknown values.
type UpdateInput struct {
	// available releases
	CurrentOSVersion     *string
	CurrentBetaOSVersion *string
	CurrentBetaOSCommit  *string

	BetaOptIn bool

	// installed FarmBot OS, from informational settings
	ControllerVersion *string
	Commit            *string
	CurrentlyOnBeta   bool

	Jobs      map[string]JobProgress
	BotOnline bool
}

// ButtonProps is everything needed to draw the update control.
type ButtonProps struct {
	Status   string `json:"status"`
	Color    string `json:"color"` // green | gray | yellow
	Text     string `json:"text"`
	Title    string `json:"title"`
	Progress string `json:"progress,omitempty"`
	Disabled bool   `json:"disabled"`
}

func colorAndText(status UpdateButton) (string, string) {
	switch status {
	case NeedsUpdate:
		return "green", "UPDATE"
	case UpToDate:
		return "gray", "UP TO DATE"
	case Unknown:
		return "yellow", "Can't connect to release server"
	default:
		return "yellow", "Can't connect to bot"
	}
}

// LatestVersion picks the newest release the device should run.
func LatestVersion(current, beta *string, betaOptIn bool) *string {
	if !betaOptIn {
		return current
	}
	if SemverCompare(deref(current), deref(beta)) == RightIsGreater {
		return beta
	}
	return current
}

// betaCommitsAreEqual is false only when both commits are known and differ.
func betaCommitsAreEqual(fbosCommit, betaCommit *string) bool {
	return !(fbosCommit != nil && betaCommit != nil && *fbosCommit != *betaCommit)
}

func compareWithBotVersion(candidate, controllerVersion *string) UpdateButton {
	if controllerVersion == nil {
		return None
	}
	if candidate == nil {
		return Unknown
	}
	switch SemverCompare(*candidate, *controllerVersion) {
	case RightIsGreater, Equal:
		return UpToDate
	default:
		return NeedsUpdate
	}
}

// Status decides the update control state.
func Status(in UpdateInput) UpdateButton {
	latest := LatestVersion(in.CurrentOSVersion, in.CurrentBetaOSVersion, in.BetaOptIn)
	status := compareWithBotVersion(latest, in.ControllerVersion)

	// controller_version is truncated, so 1.0.0-beta vs 1.0.0 can look like 1.0.0 vs 1.0.0
	uncertain := status == UpToDate && in.BetaOptIn
	// 1.0.0-beta vs 1.0.0-beta where the installed beta is older
	oldBetaCommit := latest != nil && in.CurrentBetaOSVersion != nil && *latest == *in.CurrentBetaOSVersion &&
		!betaCommitsAreEqual(in.Commit, in.CurrentBetaOSCommit)
	if uncertain && (oldBetaCommit || in.CurrentlyOnBeta) {
		status = NeedsUpdate
	}
	return status
}

// Props computes the full control description, including download progress.
func Props(in UpdateInput) ButtonProps {
	status := Status(in)
	color, text := colorAndText(status)
	job, hasJob := in.Jobs[OTAJob]
	working := hasJob && isWorking(job)

	return ButtonProps{
		Status:   status.String(),
		Color:    color,
		Text:     text,
		Title:    deref(LatestVersion(in.CurrentOSVersion, in.CurrentBetaOSVersion, in.BetaOptIn)),
		Progress: DownloadProgress(job, hasJob),
		Disabled: working || !in.BotOnline,
	}
}

func isWorking(job JobProgress) bool { return job.Status == "working" }

// DownloadProgress formats a working job as "42%", "512B", "3kB" or "12MB".
func DownloadProgress(job JobProgress, ok bool) string {
	if !ok || !isWorking(job) {
		return ""
	}
	switch job.Unit {
	case "bytes":
		kiloBytes := math.Round(job.Bytes / 1024)
		megaBytes := math.Round(job.Bytes / 1048576)
		switch {
		case kiloBytes < 1:
			return num(job.Bytes) + "B"
		case megaBytes < 1:
			return num(kiloBytes) + "kB"
		default:
			return num(megaBytes) + "MB"
		}
	case "percent":
		return num(job.Percent) + "%"
	}
	return ""
}

func num(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
