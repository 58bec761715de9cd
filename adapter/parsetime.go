package adapter

import "github.com/araddon/dateparse"

// ParseTime is the permissive ISO-8601/RFC-822 date parser used to
// convert an adapter-emitted "published" string into epoch seconds. An
// unparseable string returns 0, per spec §4.2.
func ParseTime(s string) int64 {
	if s == "" {
		return 0
	}
	t, err := dateparse.ParseAny(s)
	if err != nil {
		return 0
	}
	return t.Unix()
}
