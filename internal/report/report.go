// Package report renders investigation scratchpads for humans: plain text
// dumps and diffs between two states of a section.
package report

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/casefile-dev/casefile/internal/document"
)

// SectionsEqual compares two rendered sections by digest.
func SectionsEqual(a, b []byte) bool {
	ha := sha256.Sum256(a)
	hb := sha256.Sum256(b)
	return bytes.Equal(ha[:], hb[:])
}

// RenderValue pretty-prints a document value as indented text with stable
// mapping key order, suitable for terminals and for line diffs.
func RenderValue(v document.Value) string {
	var sb strings.Builder
	renderInto(&sb, v, 0)
	return sb.String()
}

func renderInto(sb *strings.Builder, v document.Value, depth int) {
	indent := strings.Repeat("  ", depth)
	switch v.Kind() {
	case document.Null:
		sb.WriteString(indent + "~\n")
	case document.Bool:
		b, _ := v.AsBool()
		fmt.Fprintf(sb, "%s%t\n", indent, b)
	case document.Number:
		n, _ := v.AsNumber()
		fmt.Fprintf(sb, "%s%v\n", indent, n)
	case document.String:
		s, _ := v.AsString()
		fmt.Fprintf(sb, "%s%s\n", indent, s)
	case document.Sequence:
		seq, _ := v.AsSequence()
		if len(seq) == 0 {
			sb.WriteString(indent + "[]\n")
			return
		}
		for i, e := range seq {
			fmt.Fprintf(sb, "%s- [%d]\n", indent, i)
			renderInto(sb, e, depth+1)
		}
	case document.Mapping:
		m, _ := v.AsMapping()
		if len(m) == 0 {
			sb.WriteString(indent + "{}\n")
			return
		}
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(sb, "%s%s:\n", indent, k)
			renderInto(sb, m[k], depth+1)
		}
	}
}

// SectionDiff produces a unified-style diff between two rendered states of
// one section. Returns "" when the states are identical.
func SectionDiff(section string, before, after document.Value) string {
	beforeStr := RenderValue(before)
	afterStr := RenderValue(after)
	if beforeStr == afterStr {
		return ""
	}

	dmp := diffmatchpatch.New()

	// Line-mode diff for readable output on multi-line sections.
	a, b, lineArray := dmp.DiffLinesToChars(beforeStr, afterStr)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	patches := dmp.PatchMake(beforeStr, diffs)
	if len(patches) == 0 {
		return ""
	}

	var result strings.Builder
	result.WriteString(fmt.Sprintf("--- a/%s\n", section))
	result.WriteString(fmt.Sprintf("+++ b/%s\n", section))
	result.WriteString(dmp.PatchToText(patches))

	return result.String()
}
