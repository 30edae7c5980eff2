package types

import "testing"

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to SourceStatus
		want     bool
	}{
		{SourceStatusPending, SourceStatusUploading, true},
		{SourceStatusPending, SourceStatusProcessing, true},
		{SourceStatusPending, SourceStatusFailed, true},
		{SourceStatusPending, SourceStatusCompleted, false},
		{SourceStatusUploading, SourceStatusProcessing, true},
		{SourceStatusUploading, SourceStatusFailed, true},
		{SourceStatusUploading, SourceStatusCompleted, false},
		{SourceStatusUploading, SourceStatusPending, false},
		{SourceStatusProcessing, SourceStatusCompleted, true},
		{SourceStatusProcessing, SourceStatusFailed, true},
		{SourceStatusProcessing, SourceStatusUploading, false},
		{SourceStatusCompleted, SourceStatusProcessing, false},
		{SourceStatusCompleted, SourceStatusFailed, false},
		{SourceStatusFailed, SourceStatusProcessing, false},
		{SourceStatusFailed, SourceStatusPending, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestTerminal(t *testing.T) {
	for _, s := range []SourceStatus{SourceStatusCompleted, SourceStatusFailed} {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []SourceStatus{SourceStatusPending, SourceStatusUploading, SourceStatusProcessing} {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestStatusValid(t *testing.T) {
	for _, s := range []SourceStatus{
		SourceStatusPending, SourceStatusUploading, SourceStatusProcessing,
		SourceStatusCompleted, SourceStatusFailed,
	} {
		if !s.Valid() {
			t.Errorf("%s should be valid", s)
		}
	}
	if SourceStatus("done").Valid() {
		t.Error("unknown status should be invalid")
	}
}

func TestCanUpload(t *testing.T) {
	cases := []struct {
		typ  SourceType
		from SourceStatus
		want bool
	}{
		{SourceTypePDF, SourceStatusPending, true},
		{SourceTypeAudio, SourceStatusPending, true},
		{SourceTypeText, SourceStatusPending, false},
		{SourceTypeWebsite, SourceStatusPending, false},
		{SourceTypeYouTube, SourceStatusPending, false},
		{SourceTypePDF, SourceStatusProcessing, false},
		{SourceTypePDF, SourceStatusCompleted, false},
	}
	for _, tc := range cases {
		if got := CanUpload(tc.typ, tc.from); got != tc.want {
			t.Errorf("CanUpload(%s, %s) = %v, want %v", tc.typ, tc.from, got, tc.want)
		}
	}
}

func TestRequiresUpload(t *testing.T) {
	if !SourceTypePDF.RequiresUpload() || !SourceTypeAudio.RequiresUpload() {
		t.Error("file-backed types must require upload")
	}
	if SourceTypeText.RequiresUpload() || SourceTypeWebsite.RequiresUpload() || SourceTypeYouTube.RequiresUpload() {
		t.Error("text and url types must not require upload")
	}
}
