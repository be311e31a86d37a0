package sources

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// testModeLimit caps the source list in test mode.
const testModeLimit = 3

// Load reads source site URLs from a flat file, one per line. Blank
// lines and # comments are skipped. Test mode returns only the first
// few sources.
func Load(path string, testMode bool) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening sources file: %w", err)
	}
	defer f.Close()

	var sites []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		sites = append(sites, line)
		if testMode && len(sites) >= testModeLimit {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading sources file: %w", err)
	}

	return sites, nil
}
