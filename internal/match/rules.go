package match

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
)

// Rule pairs a hex prefix with the command it triggers.
type Rule struct {
	Prefix  string `json:"prefix"`
	Command string `json:"command"`
}

func (r Rule) String() string {
	return r.Prefix + "=" + r.Command
}

// LoadRules parses rules from r until the first blank line or end of input.
// Prefixes are normalized to uppercase.
func LoadRules(r io.Reader) ([]Rule, error) {
	var rules []Rule

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimRight(scanner.Text(), "\r")
		if text == "" {
			break
		}

		prefix, command, ok := strings.Cut(text, "=")
		if !ok {
			return nil, fmt.Errorf("line %d: missing '=' in %q", line, text)
		}
		prefix = strings.ToUpper(strings.TrimSpace(prefix))
		if prefix == "" {
			return nil, fmt.Errorf("line %d: empty match prefix", line)
		}
		if _, err := hex.DecodeString(padEven(prefix)); err != nil {
			return nil, fmt.Errorf("line %d: prefix %q is not hex: %w", line, prefix, err)
		}

		rules = append(rules, Rule{Prefix: prefix, Command: command})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rules: %w", err)
	}

	return rules, nil
}

// LoadRulesFile reads rules from the file at path.
func LoadRulesFile(path string) ([]Rule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open rules file %s: %w", path, err)
	}
	defer f.Close()

	rules, err := LoadRules(f)
	if err != nil {
		return nil, fmt.Errorf("rules file %s: %w", path, err)
	}
	return rules, nil
}

// padEven lets odd length prefixes through the hex check; a prefix may end
// half way through a byte.
func padEven(s string) string {
	if len(s)%2 == 1 {
		return s + "0"
	}
	return s
}
