package vsphere

import (
	"regexp"
	"strings"
)

var (
	datastorePathRegex = regexp.MustCompile(`\[(.*?)\]\s+(.*?)/(.*?\.vmdk)`)
	vmdkFileRegex      = regexp.MustCompile(`([^\s/\[\]]+\.vmdk)`)
)

// DiskPath is a parsed "[datastore] folder/file.vmdk" reference.
type DiskPath struct {
	Datastore string `json:"datastore"`
	Folder    string `json:"folder"`
	File      string `json:"file"`
}

func (p DiskPath) String() string {
	if p.Datastore == "" {
		return p.File
	}
	return "[" + p.Datastore + "] " + p.Folder + "/" + p.File
}

// ParseDatastorePath parses a fully qualified datastore path.
func ParseDatastorePath(s string) (DiskPath, bool) {
	m := datastorePathRegex.FindStringSubmatch(s)
	if m == nil {
		return DiskPath{}, false
	}
	return DiskPath{
		Datastore: strings.TrimSpace(m[1]),
		Folder:    strings.TrimSpace(m[2]),
		File:      strings.TrimSpace(m[3]),
	}, true
}

// ParseVMDKFilename extracts only the file name of a disk reference.
func ParseVMDKFilename(s string) (string, bool) {
	m := vmdkFileRegex.FindString(s)
	if m == "" {
		return "", false
	}
	return m, true
}

// ParseDiskReference resolves a disk path from a health record: the
// structured entity name first, then the free-text message, then a bare
// file name from either.
func ParseDiskReference(name, message string) (DiskPath, bool) {
	if p, ok := ParseDatastorePath(name); ok {
		return p, true
	}
	if p, ok := ParseDatastorePath(message); ok {
		return p, true
	}
	for _, s := range []string{name, message} {
		if f, ok := ParseVMDKFilename(s); ok {
			return DiskPath{File: f}, true
		}
	}
	return DiskPath{}, false
}
