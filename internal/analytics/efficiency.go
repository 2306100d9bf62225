package analytics

import (
	"time"

	"github.com/thoas/go-funk"

	"github.com/kubev2v/inventory-advisor/internal/inventory"
	"github.com/kubev2v/inventory-advisor/pkg/normalize"
)

type Grade string

const (
	GradeExcellent        Grade = "Excellent"
	GradeGood             Grade = "Good"
	GradeFair             Grade = "Fair"
	GradeNeedsImprovement Grade = "Needs Improvement"
)

func gradeFor(score int) Grade {
	switch {
	case score >= 90:
		return GradeExcellent
	case score >= 75:
		return GradeGood
	case score >= 60:
		return GradeFair
	default:
		return GradeNeedsImprovement
	}
}

// ScoreComponent is one weighted part of the efficiency score. Value is the
// measured input the score was derived from.
type ScoreComponent struct {
	Score int     `json:"score"`
	Max   int     `json:"max"`
	Value float64 `json:"value"`
}

type Efficiency struct {
	Score       int            `json:"score"`
	Grade       Grade          `json:"grade"`
	PowerOn     ScoreComponent `json:"power_on_ratio"`
	Snapshots   ScoreComponent `json:"snapshot_hygiene"`
	ThinDisks   ScoreComponent `json:"disk_efficiency"`
	Reservation ScoreComponent `json:"reservation_efficiency"`
	Density     ScoreComponent `json:"vm_density"`
}

// ComputeEfficiency scores the estate out of 100: powered-on share (30),
// snapshot hygiene (25), thin provisioning (20), absence of reservations
// (15) and VM density per host (10). Components whose table is missing get
// a neutral default.
func ComputeEfficiency(snap *inventory.Snapshot, now time.Time, oldDays int) Efficiency {
	vms := snap.VMs()
	total := len(vms)

	e := Efficiency{
		PowerOn:     powerComponent(vms),
		Snapshots:   snapshotComponent(snap, total, now.AddDate(0, 0, -oldDays)),
		ThinDisks:   thinComponent(snap),
		Reservation: reservationComponent(snap, total),
		Density:     densityComponent(vms),
	}
	e.Score = e.PowerOn.Score + e.Snapshots.Score + e.ThinDisks.Score + e.Reservation.Score + e.Density.Score
	e.Grade = gradeFor(e.Score)
	return e
}

func powerComponent(vms []inventory.VM) ScoreComponent {
	on := 0
	for _, vm := range vms {
		if vm.PoweredOn() {
			on++
		}
	}
	ratio := normalize.Percent(float64(on), float64(len(vms)))
	c := ScoreComponent{Max: 30, Value: round1(ratio)}
	switch {
	case ratio >= 80:
		c.Score = 30
	case ratio >= 60:
		c.Score = 20
	case ratio >= 40:
		c.Score = 10
	}
	return c
}

func snapshotComponent(snap *inventory.Snapshot, totalVMs int, cutoff time.Time) ScoreComponent {
	withOld := make(map[inventory.Key]struct{})
	for _, row := range snap.Table(inventory.TableVSnapshot).Rows() {
		if taken, ok := row.Date(inventory.FieldDate); ok && taken.Before(cutoff) {
			withOld[row.VMKey()] = struct{}{}
		}
	}
	ratio := normalize.Percent(float64(len(withOld)), float64(totalVMs))
	return ScoreComponent{Score: int(max(0, 25-ratio*0.5)), Max: 25, Value: float64(len(withOld))}
}

func thinComponent(snap *inventory.Snapshot) ScoreComponent {
	disks := snap.Table(inventory.TableVDisk)
	if !disks.Has(inventory.FieldThin) {
		return ScoreComponent{Score: 10, Max: 20, Value: 50}
	}
	thin := 0
	for _, row := range disks.Rows() {
		if row.Bool(inventory.FieldThin) {
			thin++
		}
	}
	ratio := normalize.Percent(float64(thin), float64(disks.Len()))
	return ScoreComponent{Score: int(ratio * 0.2), Max: 20, Value: round1(ratio)}
}

func reservationComponent(snap *inventory.Snapshot, totalVMs int) ScoreComponent {
	if !snap.HasTable(inventory.TableVCPU) {
		return ScoreComponent{Score: 10, Max: 15}
	}
	cpu := snap.Table(inventory.TableVCPU)
	reserved := 0
	if cpu.Has(inventory.FieldReservation) {
		for _, row := range cpu.Rows() {
			if row.Float(inventory.FieldReservation) > 0 {
				reserved++
			}
		}
	}
	ratio := normalize.Percent(float64(reserved), float64(totalVMs))
	return ScoreComponent{Score: int(max(0, 15-ratio*0.3)), Max: 15, Value: float64(reserved)}
}

func densityComponent(vms []inventory.VM) ScoreComponent {
	names := make([]string, 0, len(vms))
	for _, vm := range vms {
		names = append(names, vm.Source+"/"+vm.Host)
	}
	hosts := len(funk.UniqString(names))

	var avg float64
	if hosts > 0 {
		avg = float64(len(vms)) / float64(hosts)
	}
	c := ScoreComponent{Max: 10, Value: round1(avg)}
	switch {
	case avg >= 15:
		c.Score = 10
	case avg >= 10:
		c.Score = 7
	case avg >= 5:
		c.Score = 5
	default:
		c.Score = 2
	}
	return c
}
