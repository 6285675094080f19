// Package accounts loads the credential list the claim runs draw from.
// Two formats are supported: the classic pipe-separated text file
// (username|password, one per line) and a YAML list with optional labels.
package accounts

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mfo-tools/mfo-claim/internal/domain"
)

// Parse reads the pipe-separated format. Blank lines are skipped and
// malformed lines are dropped rather than failing the whole list.
func Parse(r io.Reader) ([]domain.Account, error) {
	var accounts []domain.Account

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.SplitN(line, "|", 2)
		if len(parts) != 2 {
			continue
		}

		accounts = append(accounts, domain.Account{
			Username: strings.TrimSpace(parts[0]),
			Password: strings.TrimSpace(parts[1]),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read account list: %w", err)
	}

	return accounts, nil
}

// ParseYAML reads the YAML list format
func ParseYAML(data []byte) ([]domain.Account, error) {
	var accounts []domain.Account
	if err := yaml.Unmarshal(data, &accounts); err != nil {
		return nil, fmt.Errorf("parse accounts yaml: %w", err)
	}

	valid := accounts[:0]
	for _, a := range accounts {
		if a.Username == "" || a.Password == "" {
			continue
		}
		valid = append(valid, a)
	}
	return valid, nil
}

// Load reads the account list at path, dispatching on the file extension
func Load(path string) ([]domain.Account, error) {
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return ParseYAML(data)
	default:
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return Parse(f)
	}
}

// Find returns the account whose username or label matches name
func Find(accounts []domain.Account, name string) (domain.Account, bool) {
	for _, a := range accounts {
		if a.Username == name || (a.Label != "" && a.Label == name) {
			return a, true
		}
	}
	return domain.Account{}, false
}
