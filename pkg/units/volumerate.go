package units

// VolumeRate is a volumetric flow stored canonically in cubic metres
// per second.
type VolumeRate float32

// VolumeRateFromCubicMetersPerSecond creates VolumeRate from m³/s.
func VolumeRateFromCubicMetersPerSecond(m3s float32) VolumeRate {
	return VolumeRate(m3s)
}

// VolumeRateFromLitersPerMinute creates VolumeRate from litres per
// minute.
func VolumeRateFromLitersPerMinute(lpm float32) VolumeRate {
	return VolumeRate(float64(lpm) / (litersPerCubicMeter * secondsPerMinute))
}

// CubicMetersPerSecond gets the flow in m³/s.
func (v VolumeRate) CubicMetersPerSecond() float32 {
	return float32(v)
}

// LitersPerMinute gets the flow in litres per minute.
func (v VolumeRate) LitersPerMinute() float32 {
	return float32(float64(v) * litersPerCubicMeter * secondsPerMinute)
}

const litersPerCubicMeter = 1000.0
