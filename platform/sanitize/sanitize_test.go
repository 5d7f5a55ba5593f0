package sanitize

import "testing"

func TestText(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"  Sony   Bravia ", "Sony Bravia"},
		{"<b>No</b> picture", "No picture"},
		{"&lt;script&gt;alert(1)&lt;/script&gt;Lines on screen", "alert(1)Lines on screen"},
		{"Tom &amp; Jerry", "Tom & Jerry"},
		{"first line\nsecond\t\tline", "first line\nsecond line"},
	}

	for _, tc := range cases {
		if got := Text(tc.in); got != tc.want {
			t.Errorf("Text(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestOptional(t *testing.T) {
	if Optional("  <br/> ") != nil {
		t.Fatal("expected nil for markup-only input")
	}
	if got := Optional(" Dhanmondi 27 "); got == nil || *got != "Dhanmondi 27" {
		t.Fatalf("unexpected %v", got)
	}
}
