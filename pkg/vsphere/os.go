package vsphere

import "regexp"

// EOLSignature identifies an operating system family that no longer receives
// vendor security updates.
type EOLSignature struct {
	Name    string
	pattern *regexp.Regexp
}

func eol(name, pattern string) EOLSignature {
	return EOLSignature{Name: name, pattern: regexp.MustCompile(`(?i)` + pattern)}
}

// EOLSignatures is the fixed list of end-of-life guest operating systems.
var EOLSignatures = []EOLSignature{
	eol("Windows Server 2003", `windows server 2003`),
	eol("Windows Server 2008", `windows server 2008`),
	eol("Windows Server 2012", `windows server 2012`),
	eol("Windows XP", `windows xp`),
	eol("Windows Vista", `windows vista`),
	eol("Windows 7", `windows 7\b`),
	eol("CentOS 5", `centos 5\b`),
	eol("CentOS 6", `centos 6\b`),
	eol("CentOS 7", `centos 7\b`),
	eol("Red Hat Enterprise Linux 4", `red hat enterprise linux 4\b`),
	eol("Red Hat Enterprise Linux 5", `red hat enterprise linux 5\b`),
	eol("Red Hat Enterprise Linux 6", `red hat enterprise linux 6\b`),
	eol("Ubuntu 14", `ubuntu 14\b`),
	eol("Ubuntu 16", `ubuntu 16\b`),
	eol("Debian 6", `debian (gnu/linux )?6\b`),
	eol("Debian 7", `debian (gnu/linux )?7\b`),
	eol("Debian 8", `debian (gnu/linux )?8\b`),
	eol("SUSE Linux Enterprise 11", `suse linux enterprise( server)? 11\b`),
}

// MatchEOL returns the first end-of-life signature matching an OS label.
func MatchEOL(osLabel string) (EOLSignature, bool) {
	if osLabel == "" {
		return EOLSignature{}, false
	}
	for _, sig := range EOLSignatures {
		if sig.pattern.MatchString(osLabel) {
			return sig, true
		}
	}
	return EOLSignature{}, false
}
