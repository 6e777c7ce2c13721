package sanitize

import "testing"

func TestNoteNeutralisesTagBrackets(t *testing.T) {
	got := Note("  owner <b>busy</b>\n[Dropped] call later ")
	want := "owner busy (Dropped) call later"
	if got != want {
		t.Fatalf("Note() = %q, want %q", got, want)
	}
}

func TestStripHTMLDecodedTags(t *testing.T) {
	if got := StripHTML("&lt;script&gt;x&lt;/script&gt;ok"); got != "xok" {
		t.Fatalf("StripHTML() = %q", got)
	}
}
