package thermostat

import (
	"github.com/clambin/go-common/set"
	"strconv"
)

// BlowerMode is the furnace fan mode, using the thermostat's fmode encoding.
type BlowerMode int

const (
	ModeAuto      BlowerMode = 0
	ModeCirculate BlowerMode = 1
	ModeOn        BlowerMode = 2
)

var validModes = set.New(ModeAuto, ModeCirculate, ModeOn)

func (m BlowerMode) String() string {
	switch m {
	case ModeAuto:
		return "AUTO"
	case ModeCirculate:
		return "CIRCULATE"
	case ModeOn:
		return "ON"
	default:
		return "UNKNOWN(" + strconv.Itoa(int(m)) + ")"
	}
}
