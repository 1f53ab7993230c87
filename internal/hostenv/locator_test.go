package hostenv

import "testing"

func TestParseLocator_Resolution(t *testing.T) {
	cases := []struct {
		name string
		ref  string
		base string
		want string
	}{
		{"absolute ref ignores base", "/openscad.wasm", "/kernel/loader.js", "/openscad.wasm"},
		{"relative ref joins base dir", "openscad.data", "/kernel/loader.js", "/kernel/openscad.data"},
		{"nested relative", "fonts/fonts.conf", "/kernel/loader.js", "/kernel/fonts/fonts.conf"},
		{"no base keeps ref", "openscad.wasm", "", "openscad.wasm"},
		{"scheme and host stripped", "https://cdn.example.com/pkg/openscad.wasm", "", "/pkg/openscad.wasm"},
		{"scheme with bare host", "https://cdn.example.com", "", "/"},
		{"surrounding whitespace trimmed", "  openscad.wasm  ", "", "openscad.wasm"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := ParseLocator(c.ref, c.base).String()
			if got != c.want {
				t.Errorf("ParseLocator(%q, %q) = %q, want %q", c.ref, c.base, got, c.want)
			}
		})
	}
}

func TestLocator_Name(t *testing.T) {
	cases := []struct {
		ref  string
		want string
	}{
		{"/kernel/openscad.wasm", "openscad.wasm"},
		{"openscad.wasm", "openscad.wasm"},
		{"/kernel/dist/", "dist"},
		{"/", ""},
		{"", ""},
	}
	for _, c := range cases {
		if got := ParseLocator(c.ref, "").Name(); got != c.want {
			t.Errorf("Name(%q) = %q, want %q", c.ref, got, c.want)
		}
	}
}
