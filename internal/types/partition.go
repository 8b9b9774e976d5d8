package types

import "fmt"

// Partition assigns clients to groups by fixed id ranges:
// id <= WorldMax is world, id <= DevMax is dev, anything above is eval.
type Partition struct {
	WorldMax int
	DevMax   int
}

// DefaultPartition is the 25/25/25 split of the public release.
var DefaultPartition = Partition{WorldMax: 25, DevMax: 50}

func (p Partition) Validate() error {
	if p.WorldMax <= 0 || p.DevMax <= p.WorldMax {
		return fmt.Errorf("invalid partition: world <= %d, dev <= %d", p.WorldMax, p.DevMax)
	}
	return nil
}

func (p Partition) Group(id int) Group {
	switch {
	case id <= p.WorldMax:
		return GroupWorld
	case id <= p.DevMax:
		return GroupDev
	default:
		return GroupEval
	}
}
