package hub_test

import (
	"strings"
	"testing"

	"github.com/sarosa2890/RUCord/internal/hub"
)

func TestPresenceDefaultsOffline(t *testing.T) {
	p := hub.NewPresence(newTestLogger())

	rec := p.Get(1)
	if rec.Status != hub.StatusOffline {
		t.Errorf("expected offline for an unknown user, got %q", rec.Status)
	}
	if rec.UserID != 1 {
		t.Errorf("expected record for user 1, got %d", rec.UserID)
	}
}

func TestSetOnlineReportsChange(t *testing.T) {
	p := hub.NewPresence(newTestLogger())

	if _, changed := p.SetOnline(1); !changed {
		t.Error("expected changed=true on the first transition to online")
	}
	if _, changed := p.SetOnline(1); changed {
		t.Error("expected changed=false when already online")
	}
}

func TestSetOnlineKeepsStatusMessage(t *testing.T) {
	p := hub.NewPresence(newTestLogger())
	if _, err := p.Set(1, hub.StatusDND, "in a meeting"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	rec, _ := p.SetOnline(1)
	if rec.StatusMessage != "in a meeting" {
		t.Errorf("status message lost across SetOnline: %q", rec.StatusMessage)
	}
}

func TestSetOffline(t *testing.T) {
	p := hub.NewPresence(newTestLogger())
	p.SetOnline(1)

	rec := p.SetOffline(1)
	if rec.Status != hub.StatusOffline {
		t.Errorf("expected offline, got %q", rec.Status)
	}
	if got := p.Get(1).Status; got != hub.StatusOffline {
		t.Errorf("stored status is %q, want offline", got)
	}
}

func TestSetValidatesStatus(t *testing.T) {
	p := hub.NewPresence(newTestLogger())

	for _, status := range []hub.Status{hub.StatusOnline, hub.StatusIdle, hub.StatusDND, hub.StatusOffline} {
		if _, err := p.Set(1, status, ""); err != nil {
			t.Errorf("Set(%q) failed: %v", status, err)
		}
	}
	if _, err := p.Set(1, hub.Status("invisible"), ""); err == nil {
		t.Error("expected ErrInvalidStatus for an unknown status")
	}
}

func TestSetTruncatesLongMessage(t *testing.T) {
	p := hub.NewPresence(newTestLogger())

	long := strings.Repeat("x", hub.MaxStatusMessageLen+50)
	rec, err := p.Set(1, hub.StatusOnline, long)
	if err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if len(rec.StatusMessage) != hub.MaxStatusMessageLen {
		t.Errorf("expected message truncated to %d, got %d", hub.MaxStatusMessageLen, len(rec.StatusMessage))
	}
}
