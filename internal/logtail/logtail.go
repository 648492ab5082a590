package logtail

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Read returns at most maxLines from the end of the file at path. A
// non-positive maxLines returns every line.
func Read(path string, maxLines int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if maxLines <= 0 {
		var lines []string
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read log: %w", err)
		}
		return lines, nil
	}

	ring := make([]string, maxLines)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// Level is the severity column of a log line.
type Level string

const (
	LevelNone  Level = ""
	LevelDebug Level = "DBG"
	LevelInfo  Level = "INF"
	LevelWarn  Level = "WRN"
	LevelError Level = "ERR"
)

// Entry is a log line split into its columns.
type Entry struct {
	Time      string
	Level     Level
	Component string
	Message   string
}

// Parse splits a line written by the console log format:
//
//	15:04:05 INF feed connected component=feed
//
// Lines that do not follow the format come back with only Message set.
func Parse(line string) Entry {
	fields := strings.SplitN(line, " ", 3)
	if len(fields) < 3 || !isClock(fields[0]) {
		return Entry{Message: line}
	}
	level := normalizeLevel(fields[1])
	if level == LevelNone {
		return Entry{Message: line}
	}
	e := Entry{Time: fields[0], Level: level, Message: fields[2]}

	if i := strings.Index(e.Message, "component="); i >= 0 {
		rest := e.Message[i+len("component="):]
		if j := strings.IndexByte(rest, ' '); j >= 0 {
			e.Component = rest[:j]
			e.Message = strings.TrimSpace(e.Message[:i] + rest[j+1:])
		} else {
			e.Component = rest
			e.Message = strings.TrimSpace(e.Message[:i])
		}
	}
	return e
}

func normalizeLevel(s string) Level {
	switch strings.ToUpper(s) {
	case "TRC", "DBG", "DEBUG":
		return LevelDebug
	case "INF", "INFO":
		return LevelInfo
	case "WRN", "WARN":
		return LevelWarn
	case "ERR", "ERROR", "FTL", "PNC":
		return LevelError
	}
	return LevelNone
}

func isClock(s string) bool {
	if len(s) != 8 || s[2] != ':' || s[5] != ':' {
		return false
	}
	for i, r := range s {
		if i == 2 || i == 5 {
			continue
		}
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
