package resource

import (
	"strings"
	"testing"
)

func TestIdentity_StripQuery(t *testing.T) {
	t.Parallel()

	raw := "HTTP://Sports.Core.API.espn.com/v2/venues?page=2&limit=25"
	got := Identity(raw, true)
	if got != "http://sports.core.api.espn.com/v2/venues" {
		t.Fatalf("Identity = %q", got)
	}

	kept := Identity(raw, false)
	if !strings.Contains(kept, "page=2") {
		t.Fatalf("query dropped when it should be kept: %q", kept)
	}
}

func TestHash_StableAndDistinct(t *testing.T) {
	t.Parallel()

	a := Hash("http://x/venues/3950", false)
	b := Hash("http://x/venues/3950", false)
	if a != b {
		t.Fatalf("hash not deterministic: %q vs %q", a, b)
	}
	if len(a) != 64 {
		t.Fatalf("expected sha256 hex, got len %d", len(a))
	}

	// paginated variants collapse when the querystring is stripped
	p1 := Hash("http://x/venues?page=1", true)
	p2 := Hash("http://x/venues?page=2", true)
	if p1 != p2 {
		t.Fatalf("stripped variants should share a key")
	}
	if Hash("http://x/venues?page=1", false) == Hash("http://x/venues?page=2", false) {
		t.Fatalf("unstripped variants must stay distinct")
	}
}
