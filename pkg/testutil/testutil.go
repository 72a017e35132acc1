// Package testutil provides shared helpers for auditscope tests.
package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/auditscope/auditscope/pkg/filesystem"
)

// WriteConfigFile writes a YAML rule file under dir and returns its
// path.
func WriteConfigFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}

// ReportFS builds an in-memory population of report files.
type ReportFS struct {
	FS *filesystem.MemoryFS
}

// NewReportFS creates an empty report filesystem.
func NewReportFS() *ReportFS {
	return &ReportFS{FS: filesystem.NewMemory()}
}

// AddReport writes one report file composed of the given lines and
// returns its path.
func (r *ReportFS) AddReport(name string, lines ...string) string {
	path := "reports/" + name
	r.FS.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"))
	return path
}

// AddRawReport writes one report file with raw bytes (for encoding
// tests) and returns its path.
func (r *ReportFS) AddRawReport(name string, data []byte) string {
	path := "reports/" + name
	r.FS.WriteFile(path, data)
	return path
}

// LinuxReport returns the canonical prefix lines of a KPNIXAUDIT
// Ubuntu report, followed by any extra lines.
func LinuxReport(extra ...string) []string {
	lines := []string{
		"KPNIXVERSION: 0.6.21",
		"OS_NAME: Ubuntu 22.04",
		"Linux version 5.15.0-89-generic (buildd@lcy02-amd64-044)",
		"hostname: web-01",
	}
	return append(lines, extra...)
}

// WindowsReport returns the canonical prefix lines of a KPWINAUDIT
// report, followed by any extra lines.
func WindowsReport(extra ...string) []string {
	lines := []string{
		"KPWINVERSION: 4.8",
		"OS Name: Microsoft Windows Server 2019 Standard",
		"CurrentBuildNumber: 17763",
		"UBR: 4645",
	}
	return append(lines, extra...)
}

// MacReport returns the canonical prefix lines of a KPMACAUDIT report,
// followed by any extra lines.
func MacReport(extra ...string) []string {
	lines := []string{
		"KPMACVERSION: 1.2.3",
		"ProductName: macOS",
		"ProductVersion: 14.2.1",
		"BuildVersion: 23C71",
	}
	return append(lines, extra...)
}
