package rules

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
)

// ParseText parses the line format:
//
//	# comment
//	1:/GET \/index\.php/i
//	2:plain pattern
//	/bare with flags/s
//	bare pattern
//
// Lines without an id get their 1-based rule ordinal.
func ParseText(src string) ([]Rule, error) {
	var rules []Rule
	scanner := bufio.NewScanner(strings.NewReader(src))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}

		r := Rule{ID: uint64(len(rules) + 1)}
		body := line
		if idx := strings.IndexByte(line, ':'); idx > 0 {
			if id, err := strconv.ParseUint(strings.TrimSpace(line[:idx]), 10, 64); err == nil {
				r.ID = id
				body = line[idx+1:]
			}
		}

		pattern, flags, err := splitDelimited(body)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		r.Pattern = pattern
		if err := r.applyFlags(flags); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		rules = append(rules, r)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if err := validate(rules); err != nil {
		return nil, err
	}
	return rules, nil
}

// splitDelimited unwraps /pattern/flags. Bodies not starting with a slash are
// returned as-is with no flags.
func splitDelimited(body string) (string, string, error) {
	if !strings.HasPrefix(body, "/") {
		return body, "", nil
	}
	end := strings.LastIndexByte(body, '/')
	if end == 0 {
		return "", "", fmt.Errorf("unterminated pattern %q", body)
	}
	return body[1:end], body[end+1:], nil
}
