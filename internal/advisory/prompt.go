package advisory

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/kubev2v/inventory-advisor/internal/findings"
)

const defaultSystemPrompt = "You are an experienced VMware vSphere virtualization and infrastructure engineer."

var messageRewrites = []struct {
	pattern *regexp.Regexp
	replace string
}{
	{regexp.MustCompile(`\b[a-zA-Z0-9_-]+\.(ocloud|local|vmware|vsphere|domain)\.[a-zA-Z]+\b`), "[HOSTNAME]"},
	{regexp.MustCompile(`\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`), "[IP]"},
	{regexp.MustCompile(`Restore Point\s+[\d.\s:]+created on\s+[\d./\s:]+`), "Restore Point [TIMESTAMP]"},
	{regexp.MustCompile(`\b\d{2,4}[/\-.]\d{2}[/\-.]\d{2,4}\b`), "[DATE]"},
	{regexp.MustCompile(`\b\d{2}:\d{2}:\d{2}\b`), "[TIME]"},
	{regexp.MustCompile(`(?i)\b(VM_|SRV|CIM_|DC-)[A-Za-z0-9_-]+\b`), "[VM]"},
	{regexp.MustCompile(`(?i)cluster\s+[A-Za-z0-9_\s-]+\s+in\s+[A-Za-z0-9_\s-]+\s+DC`), "cluster [CLUSTER] in [DC]"},
	{regexp.MustCompile(`(?i)\b[A-Za-z0-9_-]+_datastore[A-Za-z0-9_-]*\b`), "[DATASTORE]"},
}

// NormalizeMessage strips host names, addresses, timestamps and object
// names so that the same problem on different objects shares a cache entry.
func NormalizeMessage(message string) string {
	out := message
	for _, r := range messageRewrites {
		out = r.pattern.ReplaceAllString(out, r.replace)
	}
	return strings.TrimSpace(out)
}

func remediationPrompt(message string) string {
	return fmt.Sprintf(`For the following VMware vSphere health check warning:
1. State in one short sentence what this problem can lead to, starting with "Impact:".
2. Then list short, actionable remediation steps.

Give technical information only.

Warning: %s

Format:
Impact: <one sentence>

Remediation steps:
- Step 1
- Step 2`, message)
}

func findingPrompt(f findings.Finding) string {
	var b strings.Builder
	fmt.Fprintf(&b, "An inventory analysis raised a %s finding of type %s on %s %q.\n", f.Severity, f.Type, f.TargetKind, f.Target)
	fmt.Fprintf(&b, "Reason: %s\n", f.Reason)
	if f.Current != "" || f.Recommended != "" {
		fmt.Fprintf(&b, "Current: %s. Recommended: %s.\n", f.Current, f.Recommended)
	}
	b.WriteString("Explain the risk in one sentence, then list the remediation steps an administrator should take.")
	return b.String()
}

// findingKey ignores the target so equivalent findings on different VMs
// share advice.
func findingKey(f findings.Finding) string {
	return "finding|" + string(f.Type) + "|" + NormalizeMessage(strings.ReplaceAll(f.Reason, f.Target, "[TARGET]"))
}
