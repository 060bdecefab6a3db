package ui

import "testing"

func TestThemeNames(t *testing.T) {
	names := ThemeNames()
	if len(names) != 3 {
		t.Fatalf("ThemeNames() returned %d names, want 3", len(names))
	}
	if names[0] != "Nightfox" || names[1] != "Kanagawa" || names[2] != "Slate" {
		t.Fatalf("ThemeNames() = %v, want [Nightfox Kanagawa Slate]", names)
	}
}

func TestNextTheme(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Nightfox", "Kanagawa"},
		{"Kanagawa", "Slate"},
		{"Slate", "Nightfox"},
		{"Unknown", "Nightfox"},
	}
	for _, tc := range cases {
		if got := NextTheme(tc.in); got != tc.want {
			t.Fatalf("NextTheme(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestGetThemeFallsBackToNightfox(t *testing.T) {
	if got := GetTheme("Dracula").Name; got != "Nightfox" {
		t.Fatalf("GetTheme(Dracula).Name = %q, want Nightfox", got)
	}
	if got := GetTheme("Slate").Name; got != "Slate" {
		t.Fatalf("GetTheme(Slate).Name = %q, want Slate", got)
	}
}

func TestThemesColorEveryNotificationType(t *testing.T) {
	types := []string{
		"reservation_created",
		"reservation_updated",
		"reservation_reinstated",
		"reservation_cancelled",
		"conversation_new_message",
		"vacation_period_updated",
	}
	for _, name := range ThemeNames() {
		th := GetTheme(name)
		for _, typ := range types {
			if th.EventColors[typ] == "" {
				t.Fatalf("theme %s has no color for %s", name, typ)
			}
		}
	}
}

func TestEventStyleFallsBackToMuted(t *testing.T) {
	th := GetTheme("Slate")
	styles := th.Styles()
	got := styles.EventStyle("unknown").GetBackground()
	want := styles.EventStyle("").GetBackground()
	if got != want {
		t.Fatalf("unknown event background = %v, want muted %v", got, want)
	}
	if styles.EventStyle("reservation_cancelled").GetBackground() == want {
		t.Fatalf("known event should not use the muted fallback")
	}
}
