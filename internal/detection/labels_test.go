package detection

import "testing"

func TestParseClassNames(t *testing.T) {
	names, err := ParseClassNames("{0: 'flower', 1: 'bud', 2: \"open bloom\"}")
	if err != nil {
		t.Fatalf("ParseClassNames failed: %v", err)
	}

	want := map[int]string{0: "flower", 1: "bud", 2: "open bloom"}
	if len(names) != len(want) {
		t.Fatalf("got %d names, want %d", len(names), len(want))
	}
	for id, name := range want {
		if names[id] != name {
			t.Errorf("names[%d] = %q, want %q", id, names[id], name)
		}
	}
}

func TestParseClassNames_CommaInName(t *testing.T) {
	names, err := ParseClassNames("{0: 'flower, open', 1: 'bud'}")
	if err != nil {
		t.Fatalf("ParseClassNames failed: %v", err)
	}
	if names[0] != "flower, open" || names[1] != "bud" {
		t.Errorf("unexpected names: %v", names)
	}
}

func TestParseClassNames_Invalid(t *testing.T) {
	for _, in := range []string{"", "{}", "flower"} {
		if _, err := ParseClassNames(in); err == nil {
			t.Errorf("ParseClassNames(%q) should fail", in)
		}
	}
}
