// This file validates migration SQL files to catch schema mismatches early.

package database

import (
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strings"
	"testing"
)

// validAnalyticsActions must match the ENUM on analytics_events.action and
// the action constants in the analytics plugin.
var validAnalyticsActions = []string{"view", "click", "form_submit", "purchase", "visit", "create"}

// validBlogStatuses must match the ENUM on blogs.status.
var validBlogStatuses = []string{"active", "inactive"}

// migrationsDir returns the absolute path to db/migrations/ from the project root.
func migrationsDir(t *testing.T) string {
	t.Helper()
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine test file path")
	}
	// thisFile is internal/database/migrate_test.go, project root is two dirs up.
	projectRoot := filepath.Join(filepath.Dir(thisFile), "..", "..")
	dir := filepath.Join(projectRoot, "db", "migrations")
	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("migrations directory not found at %s: %v", dir, err)
	}
	return dir
}

// readMigrations concatenates every .up.sql file.
func readMigrations(t *testing.T) string {
	t.Helper()
	files, err := filepath.Glob(filepath.Join(migrationsDir(t), "*.up.sql"))
	if err != nil {
		t.Fatalf("globbing migration files: %v", err)
	}
	if len(files) == 0 {
		t.Fatal("no migration files found")
	}
	var b strings.Builder
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("reading %s: %v", f, err)
		}
		b.Write(data)
		b.WriteString("\n")
	}
	return b.String()
}

// enumValues extracts the quoted members of the ENUM declared for column.
func enumValues(t *testing.T, sql, column string) []string {
	t.Helper()
	re := regexp.MustCompile(`(?m)^\s*` + column + `\s+ENUM\(([^)]*)\)`)
	m := re.FindStringSubmatch(sql)
	if m == nil {
		t.Fatalf("no ENUM found for column %s", column)
	}
	var values []string
	for _, part := range strings.Split(m[1], ",") {
		values = append(values, strings.Trim(strings.TrimSpace(part), "'"))
	}
	sort.Strings(values)
	return values
}

func assertSameSet(t *testing.T, column string, got, want []string) {
	t.Helper()
	w := append([]string(nil), want...)
	sort.Strings(w)
	if strings.Join(got, ",") != strings.Join(w, ",") {
		t.Errorf("%s ENUM = %v, want %v", column, got, w)
	}
}

func TestMigrations_AnalyticsActionEnum(t *testing.T) {
	sql := readMigrations(t)
	assertSameSet(t, "action", enumValues(t, sql, "action"), validAnalyticsActions)
}

func TestMigrations_BlogStatusEnum(t *testing.T) {
	sql := readMigrations(t)
	assertSameSet(t, "status", enumValues(t, sql, "status"), validBlogStatuses)
}

// TestMigrations_OTPPairConstraint guards the both-or-neither rule on the
// reset columns of users.
func TestMigrations_OTPPairConstraint(t *testing.T) {
	sql := readMigrations(t)
	if !strings.Contains(sql, "CHECK ((otp_hash IS NULL) = (otp_expires_at IS NULL))") {
		t.Error("users table is missing the otp_hash/otp_expires_at pair constraint")
	}
}

func TestMigrations_RevenueNonNegative(t *testing.T) {
	sql := readMigrations(t)
	if !strings.Contains(sql, "CHECK (revenue >= 0)") {
		t.Error("analytics_events is missing the non-negative revenue constraint")
	}
}

// TestMigrations_UpDownPairs ensures every .up.sql has a matching .down.sql.
func TestMigrations_UpDownPairs(t *testing.T) {
	dir := migrationsDir(t)
	upFiles, err := filepath.Glob(filepath.Join(dir, "*.up.sql"))
	if err != nil {
		t.Fatalf("globbing up files: %v", err)
	}

	for _, up := range upFiles {
		down := strings.Replace(up, ".up.sql", ".down.sql", 1)
		if _, err := os.Stat(down); err != nil {
			t.Errorf("missing down migration for %s", filepath.Base(up))
		}
	}
}
