package profile

import "testing"

func TestETag(t *testing.T) {
	if got := ETag("abc"); got != `W/"abc"` {
		t.Errorf("unexpected etag %s", got)
	}
}

func TestMatchesETag(t *testing.T) {
	const id = "5f2b6c3e-1d4a-4e8b-9c7d-2a1b3c4d5e6f"
	tests := []struct {
		header string
		want   bool
	}{
		{"", false},
		{`W/"` + id + `"`, true},
		{"W/" + id, true},
		{`"` + id + `"`, true},
		{"*", false},
		{`W/"other"`, false},
		{`W/"other", W/"` + id + `"`, true},
		{`W/"` + id + `x"`, false},
	}
	for _, tt := range tests {
		if got := MatchesETag(tt.header, id); got != tt.want {
			t.Errorf("MatchesETag(%q) = %v, want %v", tt.header, got, tt.want)
		}
	}
	if MatchesETag(`W/""`, "") {
		t.Error("expected empty id never to match")
	}
}
