package tui

import (
	"bytes"
	"strings"
)

// MaxLogLines bounds the lines kept per task.
const MaxLogLines = 1000

// LogTail keeps the most recent complete lines of a task's output plus the
// line currently being written.
type LogTail struct {
	lines   []string
	partial bytes.Buffer
}

// Write appends output, splitting it into lines.
func (l *LogTail) Write(p []byte) (int, error) {
	l.partial.Write(p)
	for {
		idx := bytes.IndexByte(l.partial.Bytes(), '\n')
		if idx < 0 {
			break
		}
		line := l.partial.Next(idx + 1)
		l.append(strings.TrimRight(string(line), "\r\n"))
	}
	return len(p), nil
}

func (l *LogTail) append(line string) {
	l.lines = append(l.lines, line)
	if over := len(l.lines) - MaxLogLines; over > 0 {
		l.lines = append(l.lines[:0], l.lines[over:]...)
	}
}

// Tail returns at most n of the latest lines, including a pending partial line.
func (l *LogTail) Tail(n int) []string {
	lines := l.lines
	if l.partial.Len() > 0 {
		lines = append(lines[:len(lines):len(lines)], strings.TrimRight(l.partial.String(), "\r"))
	}
	if n >= 0 && len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines
}
