package checks

import (
	"regexp"
	"strings"

	"github.com/kubev2v/inventory-advisor/internal/findings"
	"github.com/kubev2v/inventory-advisor/internal/inventory"
	"github.com/kubev2v/inventory-advisor/pkg/vsphere"
)

var (
	_ findings.Check = (*ZombieDisk)(nil)
	_ findings.Check = (*RVHealth)(nil)
)

const maxReasonText = 100

var (
	zombieRegex  = regexp.MustCompile(`(?i)zombie`)
	healthTables = []inventory.TableName{inventory.TableVHealth}
)

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// ZombieDisk reports orphaned disk files named in health messages.
type ZombieDisk struct{}

func NewZombieDisk() *ZombieDisk { return &ZombieDisk{} }

func (c *ZombieDisk) Name() string                  { return string(findings.TypeZombieDisk) }
func (c *ZombieDisk) Tables() []inventory.TableName { return healthTables }

func (c *ZombieDisk) Run(in findings.Input) []findings.Finding {
	table, ok := in.Require(c.Name(), inventory.TableVHealth, inventory.FieldMessage)
	if !ok {
		return nil
	}

	var out []findings.Finding
	for _, row := range table.Rows() {
		message := row.String(inventory.FieldMessage)
		if !zombieRegex.MatchString(message) {
			continue
		}
		name := row.String(inventory.FieldName)
		path, ok := vsphere.ParseDiskReference(name, message)
		if !ok {
			in.Skip(c.Name(), inventory.NewErrValueCoercion(inventory.TableVHealth, inventory.FieldMessage, message))
			continue
		}

		f := findings.Finding{
			Target:      path.String(),
			TargetKind:  findings.TargetDisk,
			Type:        findings.TypeZombieDisk,
			Severity:    findings.SeverityHigh,
			Resource:    findings.ResourceStorage,
			Reason:      "Orphaned disk file found: " + truncate(message, maxReasonText),
			Current:     "ZOMBIE",
			Recommended: "Delete",
			Source:      row.Source(),
		}
		if path.Datastore != "" {
			f.Cluster = datastoreCluster(in.Snapshot, row.Source(), path.Datastore)
		}
		out = append(out, f)
	}
	return out
}

func datastoreCluster(snap *inventory.Snapshot, source, datastore string) string {
	for _, row := range snap.Table(inventory.TableVDatastore).Rows() {
		if row.Source() == source && row.String(inventory.FieldName) == datastore {
			return row.String(inventory.FieldClusterName)
		}
	}
	return ""
}

// RVHealth surfaces every other health message about a known VM or host.
// Messages naming anything else are skipped so no finding dangles.
type RVHealth struct{}

func NewRVHealth() *RVHealth { return &RVHealth{} }

func (c *RVHealth) Name() string                  { return string(findings.TypeRVHealth) }
func (c *RVHealth) Tables() []inventory.TableName { return healthTables }

func (c *RVHealth) Run(in findings.Input) []findings.Finding {
	table, ok := in.Require(c.Name(), inventory.TableVHealth, inventory.FieldMessage)
	if !ok {
		return nil
	}

	var out []findings.Finding
	for _, row := range table.Rows() {
		message := row.String(inventory.FieldMessage)
		if message == "" || zombieRegex.MatchString(message) {
			continue
		}

		sev := findings.SeverityMedium
		if strings.EqualFold(row.String(inventory.FieldMessageType), "critical") {
			sev = findings.SeverityHigh
		}

		key := inventory.Key{Source: row.Source(), Name: row.String(inventory.FieldName)}
		var f findings.Finding
		if vm, ok := in.Snapshot.VM(key); ok {
			f = forVM(vm, findings.TypeRVHealth, sev, findings.ResourceHealth)
		} else if h, ok := in.Snapshot.Host(key); ok {
			f = forHost(h, findings.TypeRVHealth, sev, findings.ResourceHealth)
		} else {
			in.Skip(c.Name(), inventory.NewErrUnknownEntity(inventory.TableVHealth, key))
			continue
		}
		f.Reason = message
		f.Current = row.String(inventory.FieldMessageType)
		f.Recommended = "Review the RVTools health details"
		out = append(out, f)
	}
	return out
}
