package models

import "time"

// Shanghai is the zone snapshot dates are taken in. The fixed-offset
// fallback covers images shipped without tzdata; the zone has no DST.
var Shanghai = func() *time.Location {
	loc, err := time.LoadLocation("Asia/Shanghai")
	if err != nil {
		return time.FixedZone("CST", 8*3600)
	}
	return loc
}()

// TimestampUTC renders t the way every row column stores instants.
func TimestampUTC(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// DateInShanghai renders the snapshot date for t.
func DateInShanghai(t time.Time) string {
	return t.In(Shanghai).Format("2006-01-02")
}
