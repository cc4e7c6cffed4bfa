package transfer

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

type headerOp struct {
	name   string
	value  string
	remove bool
}

// headerLines holds parsed "Name: value" lines in the order given.
type headerLines struct {
	ops           []headerOp
	contentLength int64
}

// parseHeaderLines accepts cURL header syntax:
//
//	"Name: value"  add the header, replacing a default of the same name
//	"Name:"        remove a default header
//	"Name;"        send the header with an empty value
func parseHeaderLines(lines []string) (headerLines, error) {
	parsed := headerLines{contentLength: -1}

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if name, value, ok := strings.Cut(line, ":"); ok {
			name = http.CanonicalHeaderKey(strings.TrimSpace(name))
			value = strings.TrimSpace(value)
			if name == "" {
				return headerLines{}, fmt.Errorf("header line %q has no name", line)
			}

			if name == "Content-Length" && value != "" {
				n, err := strconv.ParseInt(value, 10, 64)
				if err != nil || n < 0 {
					return headerLines{}, fmt.Errorf("header line %q has an invalid length", line)
				}
				parsed.contentLength = n
			}

			parsed.ops = append(parsed.ops, headerOp{name: name, value: value, remove: value == ""})
			continue
		}

		if name, ok := strings.CutSuffix(line, ";"); ok && strings.TrimSpace(name) != "" {
			parsed.ops = append(parsed.ops, headerOp{name: http.CanonicalHeaderKey(strings.TrimSpace(name))})
			continue
		}

		return headerLines{}, fmt.Errorf("header line %q is not of the form \"Name: value\"", line)
	}

	return parsed, nil
}

func (l headerLines) apply(h http.Header) {
	replaced := make(map[string]bool)

	for _, op := range l.ops {
		switch {
		case op.remove:
			h.Del(op.name)
			if op.name == "User-Agent" {
				// net/http only omits its default agent for an explicit empty value.
				h[op.name] = []string{""}
			}
		case !replaced[op.name]:
			h[op.name] = []string{op.value}
			replaced[op.name] = true
		default:
			h.Add(op.name, op.value)
		}
	}
}

// removes reports whether the lines strip the named default header.
func (l headerLines) removes(name string) bool {
	name = http.CanonicalHeaderKey(name)
	removed := false
	for _, op := range l.ops {
		if op.name == name {
			removed = op.remove
		}
	}
	return removed
}
