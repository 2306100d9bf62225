package vsphere

import (
	"fmt"
	"regexp"
	"strconv"
)

// DefaultMaxHardwareVersion is assumed when the hypervisor version cannot be read.
const DefaultMaxHardwareVersion = 13

type esxiRelease struct {
	major, minor, update int
	maxHW                int
}

// Ordered from newest to oldest; the first release not newer than the
// hypervisor version is the most specific match.
var esxiHardwareTable = []esxiRelease{
	{8, 0, 1, 21},
	{8, 0, 0, 20},
	{7, 0, 2, 19},
	{7, 0, 1, 18},
	{7, 0, 0, 17},
	{6, 7, 2, 15},
	{6, 7, 0, 14},
	{6, 5, 0, 13},
	{6, 0, 0, 11},
	{5, 5, 0, 10},
	{5, 1, 0, 9},
	{5, 0, 0, 8},
}

var (
	esxiVersionRegex = regexp.MustCompile(`(\d+)\.(\d+)(?:\.(\d+))?`)
	hwVersionRegex   = regexp.MustCompile(`(\d+)`)
)

// ESXiVersion is the numeric part of an ESXi version string such as
// "VMware ESXi 8.0.1 build-21495797".
type ESXiVersion struct {
	Major  int
	Minor  int
	Update int
}

func (v ESXiVersion) String() string {
	if v.Update > 0 {
		return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Update)
	}
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

func (v ESXiVersion) atLeast(major, minor, update int) bool {
	if v.Major != major {
		return v.Major > major
	}
	if v.Minor != minor {
		return v.Minor > minor
	}
	return v.Update >= update
}

// ParseESXiVersion extracts major.minor[.update] from a free-text version.
func ParseESXiVersion(s string) (ESXiVersion, bool) {
	m := esxiVersionRegex.FindStringSubmatch(s)
	if m == nil {
		return ESXiVersion{}, false
	}
	v := ESXiVersion{}
	v.Major, _ = strconv.Atoi(m[1])
	v.Minor, _ = strconv.Atoi(m[2])
	if m[3] != "" {
		v.Update, _ = strconv.Atoi(m[3])
	}
	return v, true
}

// MaxHardwareVersion returns the highest virtual hardware version a host
// running the given ESXi version supports.
func MaxHardwareVersion(esxVersion string) int {
	v, ok := ParseESXiVersion(esxVersion)
	if !ok {
		return DefaultMaxHardwareVersion
	}
	for _, r := range esxiHardwareTable {
		if v.atLeast(r.major, r.minor, r.update) {
			return r.maxHW
		}
	}
	return DefaultMaxHardwareVersion
}

// ParseHardwareVersion reads "vmx-15", "15" or "VM version 15" as 15.
func ParseHardwareVersion(s string) (int, bool) {
	m := hwVersionRegex.FindString(s)
	if m == "" {
		return 0, false
	}
	v, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return v, true
}

// HardwareVersionLabel formats a hardware version the way vSphere does.
func HardwareVersionLabel(v int) string {
	return fmt.Sprintf("vmx-%d", v)
}
