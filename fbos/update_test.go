package fbos

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func s(v string) *string { return &v }

func TestStatus(t *testing.T) {
	tbl := []struct {
		name string
		in   UpdateInput
		res  UpdateButton
	}{
		{"bot version unknown", UpdateInput{CurrentOSVersion: s("3.1.6")}, None},
		{"release unknown", UpdateInput{ControllerVersion: s("3.1.6")}, Unknown},
		{"up to date", UpdateInput{CurrentOSVersion: s("3.1.6"), ControllerVersion: s("3.1.6")}, UpToDate},
		{"bot is newer", UpdateInput{CurrentOSVersion: s("3.1.6"), ControllerVersion: s("3.1.7")}, UpToDate},
		{"needs update", UpdateInput{CurrentOSVersion: s("3.1.6"), ControllerVersion: s("3.1.5")}, NeedsUpdate},
		{"beta ignored without opt-in", UpdateInput{CurrentOSVersion: s("3.1.6"), CurrentBetaOSVersion: s("3.2.0-beta"),
			ControllerVersion: s("3.1.6")}, UpToDate},
		{"newer beta with opt-in", UpdateInput{CurrentOSVersion: s("3.1.6"), CurrentBetaOSVersion: s("3.2.0-beta"),
			BetaOptIn: true, ControllerVersion: s("3.1.6")}, NeedsUpdate},
		{"older beta with opt-in", UpdateInput{CurrentOSVersion: s("3.1.6"), CurrentBetaOSVersion: s("3.1.6-beta"),
			BetaOptIn: true, ControllerVersion: s("3.1.6")}, UpToDate},
		{"on beta, release out", UpdateInput{CurrentOSVersion: s("3.1.6"), CurrentBetaOSVersion: s("3.1.6-beta"),
			BetaOptIn: true, ControllerVersion: s("3.1.6"), CurrentlyOnBeta: true}, NeedsUpdate},
		{"currently on beta without opt-in", UpdateInput{CurrentOSVersion: s("3.1.6"),
			ControllerVersion: s("3.1.6"), CurrentlyOnBeta: true}, UpToDate},
		{"same beta, old commit", UpdateInput{CurrentOSVersion: s("5.0.0"), CurrentBetaOSVersion: s("6.0.0-beta"),
			CurrentBetaOSCommit: s("new"), BetaOptIn: true, ControllerVersion: s("6.0.0"), Commit: s("old")}, NeedsUpdate},
		{"same beta, same commit", UpdateInput{CurrentOSVersion: s("5.0.0"), CurrentBetaOSVersion: s("6.0.0-beta"),
			CurrentBetaOSCommit: s("abc"), BetaOptIn: true, ControllerVersion: s("6.0.0"), Commit: s("abc")}, UpToDate},
		{"same beta, commit unknown", UpdateInput{CurrentOSVersion: s("5.0.0"), CurrentBetaOSVersion: s("6.0.0-beta"),
			BetaOptIn: true, ControllerVersion: s("6.0.0"), Commit: s("abc")}, UpToDate},
	}
	for _, tt := range tbl {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.res, Status(tt.in))
		})
	}
}

func TestLatestVersion(t *testing.T) {
	assert.Equal(t, "3.1.6", *LatestVersion(s("3.1.6"), s("3.2.0-beta"), false))
	assert.Equal(t, "3.2.0-beta", *LatestVersion(s("3.1.6"), s("3.2.0-beta"), true))
	assert.Equal(t, "3.1.6", *LatestVersion(s("3.1.6"), s("3.1.6-beta"), true))
	assert.Equal(t, "3.2.0-beta", *LatestVersion(nil, s("3.2.0-beta"), true))
	assert.Nil(t, LatestVersion(nil, nil, true))
}

func TestProps(t *testing.T) {
	t.Run("offline bot", func(t *testing.T) {
		p := Props(UpdateInput{CurrentOSVersion: s("3.1.6")})
		assert.Equal(t, ButtonProps{Status: "none", Color: "yellow", Text: "Can't connect to bot",
			Title: "3.1.6", Disabled: true}, p)
	})
	t.Run("update available", func(t *testing.T) {
		p := Props(UpdateInput{CurrentOSVersion: s("3.1.6"), ControllerVersion: s("3.1.0"), BotOnline: true})
		assert.Equal(t, ButtonProps{Status: "needs_update", Color: "green", Text: "UPDATE", Title: "3.1.6"}, p)
	})
	t.Run("release server down", func(t *testing.T) {
		p := Props(UpdateInput{ControllerVersion: s("3.1.0"), BotOnline: true})
		assert.Equal(t, "yellow", p.Color)
		assert.Equal(t, "Can't connect to release server", p.Text)
	})
	t.Run("download in progress", func(t *testing.T) {
		p := Props(UpdateInput{CurrentOSVersion: s("3.1.6"), ControllerVersion: s("3.1.6"), BotOnline: true,
			Jobs: map[string]JobProgress{OTAJob: {Status: "working", Unit: "percent", Percent: 42}}})
		assert.Equal(t, "gray", p.Color)
		assert.Equal(t, "42%", p.Progress)
		assert.True(t, p.Disabled)
	})
	t.Run("finished download", func(t *testing.T) {
		p := Props(UpdateInput{CurrentOSVersion: s("3.1.6"), ControllerVersion: s("3.1.6"), BotOnline: true,
			Jobs: map[string]JobProgress{OTAJob: {Status: "complete", Unit: "percent", Percent: 100}}})
		assert.Empty(t, p.Progress)
		assert.False(t, p.Disabled)
	})
}

func TestDownloadProgress(t *testing.T) {
	tbl := []struct {
		job JobProgress
		res string
	}{
		{JobProgress{Status: "working", Unit: "bytes", Bytes: 100}, "100B"},
		{JobProgress{Status: "working", Unit: "bytes", Bytes: 5000}, "5kB"},
		{JobProgress{Status: "working", Unit: "bytes", Bytes: 3000000}, "3MB"},
		{JobProgress{Status: "working", Unit: "bytes", Bytes: 250000000}, "238MB"},
		{JobProgress{Status: "working", Unit: "percent", Percent: 12.5}, "12.5%"},
		{JobProgress{Status: "complete", Unit: "percent", Percent: 100}, ""},
		{JobProgress{Status: "working", Unit: "parsecs"}, ""},
	}
	for _, tt := range tbl {
		assert.Equal(t, tt.res, DownloadProgress(tt.job, true))
	}
	assert.Equal(t, "", DownloadProgress(JobProgress{Status: "working", Unit: "percent", Percent: 5}, false))
}
