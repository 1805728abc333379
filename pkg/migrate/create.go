package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	versionLayout = "20060102150405"
	maxNameLen    = 64
)

var nameSanitizeRe = regexp.MustCompile(`[^a-z0-9_]+`)

// CreateSQLMigration writes <dir>/<version>_<name>.sql with empty goose
// sections. The version is the current UTC second, bumped past the newest
// existing file so ordering survives clock skew between developers.
func CreateSQLMigration(dir, name string) (string, error) {
	return createSQLMigration(dir, name, time.Now().UTC())
}

func createSQLMigration(dir, name string, now time.Time) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("dir is required")
	}
	safe := sanitizeName(name)
	if safe == "" {
		return "", fmt.Errorf("name %q results in empty sanitized filename", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %q: %w", dir, err)
	}

	version, err := strconv.ParseInt(now.Format(versionLayout), 10, 64)
	if err != nil {
		return "", err
	}
	latest, err := latestVersion(dir)
	if err != nil {
		return "", err
	}
	if version <= latest {
		version = latest + 1
	}

	full := filepath.Join(dir, fmt.Sprintf("%d_%s.sql", version, safe))
	body := fmt.Sprintf("-- +goose Up\n-- +goose StatementBegin\n-- %[1]s\n-- +goose StatementEnd\n\n-- +goose Down\n-- +goose StatementBegin\n-- rollback %[1]s\n-- +goose StatementEnd\n", safe)
	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create migration %q: %w", full, err)
	}
	defer f.Close()
	if _, err := f.WriteString(body); err != nil {
		return "", fmt.Errorf("write migration %q: %w", full, err)
	}
	return full, nil
}

func sanitizeName(name string) string {
	safe := strings.ToLower(strings.TrimSpace(name))
	safe = nameSanitizeRe.ReplaceAllString(safe, "_")
	safe = strings.Trim(safe, "_")
	if len(safe) > maxNameLen {
		safe = strings.TrimRight(safe[:maxNameLen], "_")
	}
	return safe
}

func latestVersion(dir string) (int64, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read dir %q: %w", dir, err)
	}
	var latest int64
	for _, e := range entries {
		m := sqlFileRe.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		if v, err := strconv.ParseInt(m[1], 10, 64); err == nil && v > latest {
			latest = v
		}
	}
	return latest, nil
}
