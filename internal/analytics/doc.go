// Package analytics computes the estate-wide views that sit next to the
// finding catalog: inventory statistics, capacity planning, an efficiency
// score, a monthly cost estimate, the guest OS mix, disk waste and resource
// reservations. Every function reads one immutable snapshot.
package analytics
