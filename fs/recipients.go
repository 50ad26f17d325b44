package fs

import (
	"bufio"
	"errors"
	"os"
	"strings"
)

// ReadRecipients reads one address per line from path. Lines without an
// "@" are ignored and duplicates are dropped. A missing file yields no
// recipients.
func ReadRecipients(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var recipients []string
	seen := make(map[string]bool)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.Contains(line, "@") || seen[line] {
			continue
		}
		seen[line] = true
		recipients = append(recipients, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return recipients, nil
}
