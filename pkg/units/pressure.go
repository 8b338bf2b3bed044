package units

// Pressure is a pressure stored canonically in pascals.
type Pressure float32

// PressureFromPascals creates Pressure from pascals.
func PressureFromPascals(pa float32) Pressure {
	return Pressure(pa)
}

// PressureFromBar creates Pressure from bar.
func PressureFromBar(bar float32) Pressure {
	return Pressure(float64(bar) * pascalsPerBar)
}

// PressureFromMillibar creates Pressure from millibar.
func PressureFromMillibar(mbar float32) Pressure {
	return Pressure(float64(mbar) * pascalsPerMillibar)
}

// PressureFromMmHg creates Pressure from millimetres of mercury.
func PressureFromMmHg(mmHg float32) Pressure {
	return Pressure(float64(mmHg) * pascalsPerMmHg)
}

// Pascals gets the pressure in pascals.
func (p Pressure) Pascals() float32 {
	return float32(p)
}

// Bar gets the pressure in bar.
func (p Pressure) Bar() float32 {
	return float32(float64(p) / pascalsPerBar)
}

// Millibar gets the pressure in millibar.
func (p Pressure) Millibar() float32 {
	return float32(float64(p) / pascalsPerMillibar)
}

// MmHg gets the pressure in millimetres of mercury.
func (p Pressure) MmHg() float32 {
	return float32(float64(p) / pascalsPerMmHg)
}

const (
	pascalsPerBar      = 100000.0
	pascalsPerMillibar = 100.0
	pascalsPerMmHg     = 133.322387415
)
