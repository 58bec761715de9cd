package entry

import "testing"

func TestDeriveID(t *testing.T) {
	cases := []struct {
		name string
		in   Entry
		want string
	}{
		{
			name: "explicit id kept",
			in:   Entry{ID: "guid-1", Link: "https://h/y"},
			want: "guid-1",
		},
		{
			name: "falls back to link",
			in:   Entry{Link: "https://h/y"},
			want: "https://h/y",
		},
		{
			name: "falls back to source+hash",
			in:   Entry{Source: "https://h/feed", Description: "hello"},
			want: "https://h/feed:5d41402abc4b2a76b9719d911017c592",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := tc.in
			DeriveID(&e)
			if e.ID != tc.want {
				t.Errorf("DeriveID() = %q, want %q", e.ID, tc.want)
			}
		})
	}
}

func TestDeriveIDIdempotent(t *testing.T) {
	e := Entry{Source: "https://h/feed", Description: "hello"}
	DeriveID(&e)
	first := e.ID
	DeriveID(&e)
	if e.ID != first {
		t.Errorf("DeriveID changed an already-set id: %q -> %q", first, e.ID)
	}
}
