package utils

import "testing"

func TestIsSubpath(t *testing.T) {
	cases := []struct {
		path, parent string
		want         bool
	}{
		{"a/b/c", "a", true},
		{"a/b/c", "a/b", true},
		{"a/b", "a/b", false},
		{"ab/c", "a", false},
		{"a", "a/b", false},
		{"raw/sub/file.dat", "raw", true},
	}
	for _, c := range cases {
		if got := IsSubpath(c.path, c.parent); got != c.want {
			t.Errorf("IsSubpath(%q, %q) = %v, want %v", c.path, c.parent, got, c.want)
		}
	}
}

func TestCommonPrefix(t *testing.T) {
	cases := []struct {
		paths []string
		want  string
	}{
		{nil, ""},
		{[]string{"raw/a", "raw/b"}, "raw/"},
		{[]string{"raw/sub", "raw/sub2"}, "raw/sub"},
		{[]string{"", "raw"}, ""},
		{[]string{"raw"}, "raw"},
	}
	for _, c := range cases {
		if got := CommonPrefix(c.paths); got != c.want {
			t.Errorf("CommonPrefix(%v) = %q, want %q", c.paths, got, c.want)
		}
	}
}

func TestCommonPath(t *testing.T) {
	cases := []struct {
		paths []string
		want  string
	}{
		{[]string{"/data/ds/raw", "/data/ds/derived"}, "/data/ds"},
		{[]string{"/data/ds", "/data/ds"}, "/data/ds"},
		{[]string{"/data/ds/raw/a.dat"}, "/data/ds/raw/a.dat"},
	}
	for _, c := range cases {
		if got := CommonPath(c.paths); got != c.want {
			t.Errorf("CommonPath(%v) = %q, want %q", c.paths, got, c.want)
		}
	}
}
