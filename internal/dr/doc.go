// Package dr infers disaster-recovery replica relationships from VM names
// and power states, and rates each recovery site's capacity to absorb a
// failover. No replication metadata is read: a powered-off VM whose name,
// once replica markers are stripped, matches a powered-on VM in another
// datacenter is taken to be its replica.
package dr
