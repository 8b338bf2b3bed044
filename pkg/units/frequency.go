// Package units provides typed physical quantities for the mockloop
// bench. Each quantity stores one canonical unit; conversions happen
// only through unit-tagged constructors and accessors, so a bare
// float never crosses a package boundary unlabeled.
package units

// Frequency is a rate stored canonically in hertz.
type Frequency float32

// FrequencyFromHertz creates Frequency from hertz.
func FrequencyFromHertz(hz float32) Frequency {
	return Frequency(hz)
}

// FrequencyFromPerMinute creates Frequency from cycles per minute.
func FrequencyFromPerMinute(cpm float32) Frequency {
	return Frequency(float64(cpm) / secondsPerMinute)
}

// Hertz gets the frequency in hertz.
func (f Frequency) Hertz() float32 {
	return float32(f)
}

// PerMinute gets the frequency in cycles per minute.
func (f Frequency) PerMinute() float32 {
	return float32(float64(f) * secondsPerMinute)
}

const secondsPerMinute = 60.0
