package types

// OSFamily identifies the operating system family a report file was
// collected from.
type OSFamily string

const (
	OSLinux     OSFamily = "Linux"
	OSWindows   OSFamily = "Windows"
	OSDarwin    OSFamily = "Darwin"
	OSOther     OSFamily = "Other"
	OSUndefined OSFamily = "Undefined"
)

// DistroFamily identifies the Linux packaging family. It is only set
// when OSFamily is Linux.
type DistroFamily string

const (
	DistroDeb   DistroFamily = "deb"
	DistroRpm   DistroFamily = "rpm"
	DistroApk   DistroFamily = "apk"
	DistroOther DistroFamily = "other"
	DistroNone  DistroFamily = ""
)

// Producer identifies the collector tool that generated a report file.
type Producer string

const (
	ProducerKPNix Producer = "KPNIXAUDIT"
	ProducerKPWin Producer = "KPWINAUDIT"
	ProducerKPMac Producer = "KPMACAUDIT"
	ProducerOther Producer = "Other"
)

// Well-known producer-specific attribute keys stored in
// SystemRecord.Attributes. The set is open; producers may contribute
// additional keys.
const (
	AttrKeyPrettyName    = "os_pretty_name"
	AttrKeyKernelVersion = "kernel_version"
	AttrKeyHostname      = "hostname"
	AttrKeyWindowsBuild  = "windows_build"
	AttrKeyWindowsUBR    = "windows_ubr"
	AttrKeyMacOSBuild    = "macos_build"
	AttrKeyMacOSVersion  = "macos_product_version"
)

// SystemRecord is the classified identity of one report file. It is
// created once during classification and never mutated afterwards;
// workers share records without synchronization.
type SystemRecord struct {
	// SystemName is derived from the report file name (extension stripped)
	SystemName string

	// Path is the report file this record was classified from
	Path string

	// OSFamily is the detected operating system family
	OSFamily OSFamily

	// DistroFamily is the Linux packaging family; DistroNone unless
	// OSFamily is Linux
	DistroFamily DistroFamily

	// Producer is the collector tool that generated the file
	Producer Producer

	// ProducerVersion is the collector's dotted version string, empty
	// when the producer is unknown
	ProducerVersion string

	// Attributes holds producer-specific facts (build numbers, pretty
	// names) extracted during classification
	Attributes map[string]string
}

// Attribute returns the named core or producer-specific attribute and
// whether it is present on this system. Core attribute names mirror the
// filter attr vocabulary.
func (s *SystemRecord) Attribute(name string) (string, bool) {
	switch name {
	case FilterAttrSystemName:
		return s.SystemName, true
	case FilterAttrOSFamily:
		return string(s.OSFamily), true
	case FilterAttrDistroFamily:
		if s.OSFamily != OSLinux || s.DistroFamily == DistroNone {
			return "", false
		}
		return string(s.DistroFamily), true
	case FilterAttrProducer:
		return string(s.Producer), true
	case FilterAttrProducerVersion:
		if s.ProducerVersion == "" {
			return "", false
		}
		return s.ProducerVersion, true
	}
	v, ok := s.Attributes[name]
	return v, ok
}
