package editor

import (
	"fmt"
	"strconv"
	"strings"
)

const wordsPerMinute = 200

// CalculateReadingTime estimates reading time at 200 words per minute.
func CalculateReadingTime(content string) string {
	words := len(strings.Fields(content))
	minutes := (words + wordsPerMinute - 1) / wordsPerMinute
	return fmt.Sprintf("%d min read", minutes)
}

// ParseReadingTime extracts n from "<n> min read". ok is false for anything else.
func ParseReadingTime(s string) (minutes int, ok bool) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
