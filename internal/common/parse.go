package common

import (
	"strings"
)

func ToLowerWithTrim(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

const bytesInMB = 1024 * 1024

func BytesToMB(bytes uint64) uint64 {
	return bytes / bytesInMB
}
