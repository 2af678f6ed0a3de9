package format

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Line operations of a Diff.
const (
	OpEqual  = "equal"
	OpInsert = "insert"
	OpDelete = "delete"
)

// contextLines is how many unchanged lines surround each unified hunk.
const contextLines = 3

type Line struct {
	Op   string `json:"op"`
	Text string `json:"text"`
}

// Diff is a line-level comparison of two documents.
type Diff struct {
	Lines   []Line `json:"lines"`
	Added   int    `json:"added"`
	Removed int    `json:"removed"`
	Unified string `json:"unified"`
}

// Compare diffs before against after line by line. Unified is empty when
// the documents are identical.
func Compare(oldName, newName, before, after string) Diff {
	dmp := diffmatchpatch.New()
	a, b, table := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), table)

	d := Diff{Lines: []Line{}}
	for _, df := range diffs {
		if df.Text == "" {
			continue
		}
		op := OpEqual
		switch df.Type {
		case diffmatchpatch.DiffInsert:
			op = OpInsert
		case diffmatchpatch.DiffDelete:
			op = OpDelete
		}
		for _, text := range strings.Split(strings.TrimSuffix(df.Text, "\n"), "\n") {
			d.Lines = append(d.Lines, Line{Op: op, Text: text})
			switch op {
			case OpInsert:
				d.Added++
			case OpDelete:
				d.Removed++
			}
		}
	}
	if d.Added+d.Removed > 0 {
		d.Unified = unified(oldName, newName, d.Lines)
	}
	return d
}

func unified(oldName, newName string, lines []Line) string {
	n := len(lines)
	// oldPos[i] and newPos[i] count the lines of each side before lines[i].
	oldPos := make([]int, n+1)
	newPos := make([]int, n+1)
	for i, l := range lines {
		oldPos[i+1], newPos[i+1] = oldPos[i], newPos[i]
		if l.Op != OpInsert {
			oldPos[i+1]++
		}
		if l.Op != OpDelete {
			newPos[i+1]++
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "--- %s\n+++ %s\n", oldName, newName)
	prevEnd := 0
	for i := 0; i < n; {
		for i < n && lines[i].Op == OpEqual {
			i++
		}
		if i == n {
			break
		}
		start := max(i-contextLines, prevEnd)
		end := i
		for end < n {
			if lines[end].Op != OpEqual {
				end++
				continue
			}
			j := end
			for j < n && lines[j].Op == OpEqual {
				j++
			}
			if j == n || j-end > 2*contextLines {
				end = min(end+contextLines, n)
				break
			}
			end = j
		}

		oldCount := oldPos[end] - oldPos[start]
		newCount := newPos[end] - newPos[start]
		fmt.Fprintf(&b, "@@ -%d,%d +%d,%d @@\n",
			hunkStart(oldPos[start], oldCount), oldCount,
			hunkStart(newPos[start], newCount), newCount)
		for _, l := range lines[start:end] {
			switch l.Op {
			case OpInsert:
				b.WriteByte('+')
			case OpDelete:
				b.WriteByte('-')
			default:
				b.WriteByte(' ')
			}
			b.WriteString(l.Text)
			b.WriteByte('\n')
		}
		prevEnd = end
		i = end
	}
	return b.String()
}

// hunkStart is 1-based, except that an empty range names the line before it.
func hunkStart(pos, count int) int {
	if count == 0 {
		return pos
	}
	return pos + 1
}
