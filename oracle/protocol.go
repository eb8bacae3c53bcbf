// Package oracle implements the proc-oracle fixture: a set of commands a
// minimal child process runs against itself to make process-control
// behavior observable from outside its address space, and the
// machine-readable line protocol those commands speak on stdout.
//
// Every command prints exactly one line:
//
//	OK pid=<int> ppid=<int> pgid=<int> sid=<int> exit=<int>
//	ERR errno=<int> msg=<token>[ <key>=<value>]*
//
// plus the fork-exit form "OK pid=<int> child=<int> child_exit=<int>".
// Values are integers except msg, which is a single token. The protocol
// is the externally observable conformance surface of the proc package.
package oracle

import (
	"fmt"
	"strconv"
	"strings"
	"syscall"
)

// Field is one ordered key=value pair on a protocol line.
type Field struct {
	Key   string
	Value int
}

// Report is the decoded form of one protocol line.
type Report struct {
	// OK distinguishes the two line forms.
	OK bool
	// Errno and Msg are populated on ERR lines. Msg is a single token.
	Errno int
	Msg   string
	// Fields holds the remaining key=value pairs in emission order.
	Fields []Field
}

// OK builds a success report from ordered fields.
func OK(fields ...Field) Report {
	return Report{OK: true, Fields: fields}
}

// Err builds a failure report. errno may be zero for protocol-level
// failures that did not come from a system call.
func Err(errno syscall.Errno, msg string, extra ...Field) Report {
	return Report{Errno: int(errno), Msg: msg, Fields: extra}
}

// Field returns the value of the named field.
func (r Report) Field(key string) (int, bool) {
	for _, f := range r.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return 0, false
}

// Line renders the report as one protocol line, without a trailing
// newline.
func (r Report) Line() string {
	var sb strings.Builder
	if r.OK {
		sb.WriteString("OK")
	} else {
		fmt.Fprintf(&sb, "ERR errno=%d msg=%s", r.Errno, r.Msg)
	}
	for _, f := range r.Fields {
		fmt.Fprintf(&sb, " %s=%d", f.Key, f.Value)
	}
	return sb.String()
}

// Parse decodes one protocol line.
func Parse(line string) (Report, error) {
	tokens := strings.Fields(line)
	if len(tokens) == 0 {
		return Report{}, fmt.Errorf("oracle: empty protocol line")
	}

	var r Report
	switch tokens[0] {
	case "OK":
		r.OK = true
	case "ERR":
		r.OK = false
	default:
		return Report{}, fmt.Errorf("oracle: line does not start with OK or ERR: %q", line)
	}

	for _, tok := range tokens[1:] {
		key, value, found := strings.Cut(tok, "=")
		if !found || key == "" {
			return Report{}, fmt.Errorf("oracle: malformed pair %q in %q", tok, line)
		}
		if key == "msg" {
			r.Msg = value
			continue
		}
		n, err := strconv.Atoi(value)
		if err != nil {
			return Report{}, fmt.Errorf("oracle: non-integer value in pair %q: %w", tok, err)
		}
		if key == "errno" && !r.OK {
			r.Errno = n
			continue
		}
		r.Fields = append(r.Fields, Field{Key: key, Value: n})
	}

	if !r.OK && r.Msg == "" {
		return Report{}, fmt.Errorf("oracle: ERR line without msg: %q", line)
	}
	return r, nil
}
