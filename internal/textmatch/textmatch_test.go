package textmatch

import "testing"

func TestContains(t *testing.T) {
	tests := []struct {
		hay, needle string
		want        bool
	}{
		{"Villa 5", "villa", true},
		{"Villa 5", "VILLA", true},
		{"Villa 5", "", true},
		{"À louer", "à LOUER", true},
		{"À vendre", "louer", false},
		{"Studio 7", "appart", false},
	}
	for _, tc := range tests {
		if got := Contains(tc.hay, tc.needle); got != tc.want {
			t.Fatalf("Contains(%q,%q)=%v want %v", tc.hay, tc.needle, got, tc.want)
		}
	}
}

func TestAnyContains(t *testing.T) {
	if !AnyContains("louer", "Appart 12", "À louer") {
		t.Fatal("expected match on second field")
	}
	if AnyContains("villa", "Appart 12", "À louer") {
		t.Fatal("unexpected match")
	}
	if !AnyContains("", "x") {
		t.Fatal("empty needle must match")
	}
}

func TestLower_Unicode(t *testing.T) {
	if got := Lower("À LOUER"); got != "à louer" {
		t.Fatalf("got %q", got)
	}
}
