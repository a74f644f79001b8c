//go:build !linux

package fsops

import "time"

func birthTime(string) (time.Time, bool) { return time.Time{}, false }
