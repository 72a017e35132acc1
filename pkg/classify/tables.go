package classify

import (
	"regexp"

	"github.com/auditscope/auditscope/pkg/types"
)

// producerSignature maps a signature pattern to a producer. The tables
// in this file are ordered and evaluated first-match-wins; new
// producers and distros are added by appending rows.
type producerSignature struct {
	producer types.Producer
	re       *regexp.Regexp
}

// producerSignatures detects the collector tool from the file prefix.
// Each collector writes its version banner in the first few lines.
var producerSignatures = []producerSignature{
	{types.ProducerKPNix, regexp.MustCompile(`KPNIXVERSION:\s*(?P<version>[0-9][0-9.]*)`)},
	{types.ProducerKPWin, regexp.MustCompile(`KPWINVERSION:\s*(?P<version>[0-9][0-9.]*)`)},
	{types.ProducerKPMac, regexp.MustCompile(`KPMACVERSION:\s*(?P<version>[0-9][0-9.]*)`)},
}

// osPattern extracts OS facts from the prefix. Named capture groups
// land in SystemRecord.Attributes; family, when non-empty, proposes the
// OS family (the first family-bearing match wins).
type osPattern struct {
	family types.OSFamily
	re     *regexp.Regexp
}

// osPatterns holds the per-producer OS detection tables. Different
// collectors expose OS facts in different text layouts.
var osPatterns = map[types.Producer][]osPattern{
	types.ProducerKPNix: {
		{types.OSLinux, regexp.MustCompile(`OS_NAME:\s*(?P<os_pretty_name>\S.*)`)},
		{types.OSLinux, regexp.MustCompile(`Linux version (?P<kernel_version>\S+)`)},
		{types.OSDarwin, regexp.MustCompile(`Darwin Kernel Version (?P<kernel_version>[0-9][0-9.]*)`)},
		{"", regexp.MustCompile(`(?i)hostname:\s*(?P<hostname>\S+)`)},
	},
	types.ProducerKPWin: {
		{types.OSWindows, regexp.MustCompile(`(?i)OS[ _]?Name:\s*(?P<os_pretty_name>[^\r]*Windows[^\r]*)`)},
		{types.OSWindows, regexp.MustCompile(`(?i)(?:Current)?BuildNumber:?\s*(?P<windows_build>\d+)`)},
		{types.OSWindows, regexp.MustCompile(`(?i)UBR:?\s*(?P<windows_ubr>\d+)`)},
		{"", regexp.MustCompile(`(?i)host\s*name:\s*(?P<hostname>\S+)`)},
	},
	types.ProducerKPMac: {
		{types.OSDarwin, regexp.MustCompile(`ProductName:\s*(?P<os_pretty_name>\S.*)`)},
		{types.OSDarwin, regexp.MustCompile(`ProductVersion:\s*(?P<macos_product_version>[0-9][0-9.]*)`)},
		{types.OSDarwin, regexp.MustCompile(`BuildVersion:\s*(?P<macos_build>\w+)`)},
		{"", regexp.MustCompile(`(?i)hostname:\s*(?P<hostname>\S+)`)},
	},
	// Unknown producers still get a best-effort OS sniff.
	types.ProducerOther: {
		{types.OSLinux, regexp.MustCompile(`PRETTY_NAME="?(?P<os_pretty_name>[^"\r]+)"?`)},
		{types.OSLinux, regexp.MustCompile(`Linux version (?P<kernel_version>\S+)`)},
		{types.OSWindows, regexp.MustCompile(`(?i)Microsoft Windows (?P<os_pretty_name>[^\r]+)`)},
		{types.OSDarwin, regexp.MustCompile(`Darwin Kernel Version (?P<kernel_version>[0-9][0-9.]*)`)},
	},
}

// distroSignature maps an OS-release-style name to a packaging family.
type distroSignature struct {
	family types.DistroFamily
	re     *regexp.Regexp
}

// distroSignatures classifies Linux distributions by family. Matched
// against the OS pretty name and os-release lines from the prefix.
var distroSignatures = []distroSignature{
	{types.DistroDeb, regexp.MustCompile(`(?i)\b(debian|ubuntu|mint|kali|raspbian|pop!_os)\b`)},
	{types.DistroRpm, regexp.MustCompile(`(?i)\b(red hat|rhel|centos|fedora|rocky|alma(linux)?|oracle linux|suse|opensuse|amazon linux)\b`)},
	{types.DistroApk, regexp.MustCompile(`(?i)\balpine\b`)},
}
