package wire

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/hemobench/mockloop.go/pkg/msgs"
	"github.com/hemobench/mockloop.go/pkg/units"
)

const (
	absent  = 0x00
	present = 0x01
)

// EncodedSetpointLen gets the exact encoded size of a setpoint.
func EncodedSetpointLen(s msgs.Setpoint) int {
	n := SetpointMinBytes
	if s.Mockloop != nil {
		n += MockloopSetpointBytes
	}
	if s.Heart != nil {
		n += HeartSetpointBytes
	}
	return n
}

// EncodedReportLen gets the exact encoded size of a report.
func EncodedReportLen(r msgs.Report) int {
	return EncodedSetpointLen(r.Setpoint) + 1 + MeasurementsBytes
}

// EncodeSetpoint encodes s into dst and returns the bytes written.
// If dst is too short, dst is untouched and ErrBufferTooSmall is
// returned.
func EncodeSetpoint(dst []byte, s msgs.Setpoint) (int, error) {
	need := EncodedSetpointLen(s)
	if len(dst) < need {
		return 0, fmt.Errorf("setpoint needs %d bytes, have %d: %w", need, len(dst), ErrBufferTooSmall)
	}
	w := writer{buf: dst}
	putSetpoint(&w, s)
	return w.off, nil
}

// DecodeSetpoint decodes a setpoint from the front of src, returning
// the value and the bytes consumed. Trailing bytes are the caller's
// business.
func DecodeSetpoint(src []byte) (msgs.Setpoint, int, error) {
	r := reader{buf: src}
	s := getSetpoint(&r)
	if r.err != nil {
		return msgs.Setpoint{}, 0, r.err
	}
	return s, r.off, nil
}

// EncodeMeasurements encodes m into dst and returns the bytes
// written. If dst is too short, dst is untouched and
// ErrBufferTooSmall is returned.
func EncodeMeasurements(dst []byte, m msgs.Measurements) (int, error) {
	if len(dst) < MeasurementsBytes {
		return 0, fmt.Errorf("measurements need %d bytes, have %d: %w", MeasurementsBytes, len(dst), ErrBufferTooSmall)
	}
	w := writer{buf: dst}
	putMeasurements(&w, m)
	return w.off, nil
}

// DecodeMeasurements decodes measurements from the front of src,
// returning the value and the bytes consumed.
func DecodeMeasurements(src []byte) (msgs.Measurements, int, error) {
	r := reader{buf: src}
	m := getMeasurements(&r)
	if r.err != nil {
		return msgs.Measurements{}, 0, r.err
	}
	return m, r.off, nil
}

// EncodeReport encodes rep into dst and returns the bytes written.
// A report with a state outside the closed set is rejected before
// anything is written.
func EncodeReport(dst []byte, rep msgs.Report) (int, error) {
	if !rep.State.IsValid() {
		return 0, fmt.Errorf("app state %d: %w", uint8(rep.State), ErrInvalidDiscriminant)
	}
	need := EncodedReportLen(rep)
	if len(dst) < need {
		return 0, fmt.Errorf("report needs %d bytes, have %d: %w", need, len(dst), ErrBufferTooSmall)
	}
	w := writer{buf: dst}
	putSetpoint(&w, rep.Setpoint)
	w.u8(byte(rep.State))
	putMeasurements(&w, rep.Measurements)
	return w.off, nil
}

// DecodeReport decodes a report from the front of src, returning the
// value and the bytes consumed.
func DecodeReport(src []byte) (msgs.Report, int, error) {
	r := reader{buf: src}
	var rep msgs.Report
	rep.Setpoint = getSetpoint(&r)
	rep.State = r.appState()
	rep.Measurements = getMeasurements(&r)
	if r.err != nil {
		return msgs.Report{}, 0, r.err
	}
	return rep, r.off, nil
}

func putSetpoint(w *writer, s msgs.Setpoint) {
	if s.Mockloop != nil {
		w.u8(present)
		w.f32(s.Mockloop.SystemicResistance)
		w.f32(s.Mockloop.PulmonaryResistance)
		w.f32(s.Mockloop.SystemicAfterloadCompliance)
		w.f32(s.Mockloop.PulmonaryAfterloadCompliance)
	} else {
		w.u8(absent)
	}
	if s.Heart != nil {
		w.u8(present)
		w.f32(s.Heart.Rate.Hertz())
		w.f32(s.Heart.Pressure.Pascals())
		w.f32(s.Heart.SystoleRatio)
	} else {
		w.u8(absent)
	}
}

func getSetpoint(r *reader) msgs.Setpoint {
	var s msgs.Setpoint
	if r.presence() {
		s.Mockloop = &msgs.MockloopSetpoint{
			SystemicResistance:           r.f32(),
			PulmonaryResistance:          r.f32(),
			SystemicAfterloadCompliance:  r.f32(),
			PulmonaryAfterloadCompliance: r.f32(),
		}
	}
	if r.presence() {
		s.Heart = &msgs.HeartControllerSetpoint{
			Rate:         units.FrequencyFromHertz(r.f32()),
			Pressure:     units.PressureFromPascals(r.f32()),
			SystoleRatio: r.f32(),
		}
	}
	return s
}

func putMeasurements(w *writer, m msgs.Measurements) {
	w.u64(m.Timestamp)
	w.f32(m.RegulatorActualPressure.Pascals())
	w.f32(m.SystemicFlow.CubicMetersPerSecond())
	w.f32(m.PulmonaryFlow.CubicMetersPerSecond())
	w.f32(m.SystemicPreloadPressure.Pascals())
	w.f32(m.SystemicAfterloadPressure.Pascals())
	w.f32(m.PulmonaryPreloadPressure.Pascals())
	w.f32(m.PulmonaryAfterloadPressure.Pascals())
}

func getMeasurements(r *reader) msgs.Measurements {
	return msgs.Measurements{
		Timestamp:                  r.u64(),
		RegulatorActualPressure:    units.PressureFromPascals(r.f32()),
		SystemicFlow:               units.VolumeRateFromCubicMetersPerSecond(r.f32()),
		PulmonaryFlow:              units.VolumeRateFromCubicMetersPerSecond(r.f32()),
		SystemicPreloadPressure:    units.PressureFromPascals(r.f32()),
		SystemicAfterloadPressure:  units.PressureFromPascals(r.f32()),
		PulmonaryPreloadPressure:   units.PressureFromPascals(r.f32()),
		PulmonaryAfterloadPressure: units.PressureFromPascals(r.f32()),
	}
}

// writer is an offset cursor over a destination already checked to be
// large enough.
type writer struct {
	buf []byte
	off int
}

func (w *writer) u8(v byte) {
	w.buf[w.off] = v
	w.off++
}

func (w *writer) u64(v uint64) {
	binary.LittleEndian.PutUint64(w.buf[w.off:], v)
	w.off += 8
}

func (w *writer) f32(v float32) {
	binary.LittleEndian.PutUint32(w.buf[w.off:], math.Float32bits(v))
	w.off += 4
}

// reader is an error-latching cursor: after the first failure all
// further reads are no-ops and the latched error is what callers see.
type reader struct {
	buf []byte
	off int
	err error
}

func (r *reader) u8() byte {
	if r.err != nil {
		return 0
	}
	if r.off >= len(r.buf) {
		r.err = ErrUnexpectedEnd
		return 0
	}
	v := r.buf[r.off]
	r.off++
	return v
}

func (r *reader) u64() uint64 {
	if r.err != nil {
		return 0
	}
	if len(r.buf)-r.off < 8 {
		r.err = ErrUnexpectedEnd
		return 0
	}
	v := binary.LittleEndian.Uint64(r.buf[r.off:])
	r.off += 8
	return v
}

func (r *reader) f32() float32 {
	if r.err != nil {
		return 0
	}
	if len(r.buf)-r.off < 4 {
		r.err = ErrUnexpectedEnd
		return 0
	}
	v := math.Float32frombits(binary.LittleEndian.Uint32(r.buf[r.off:]))
	r.off += 4
	return v
}

func (r *reader) presence() bool {
	switch r.u8() {
	case absent:
		return false
	case present:
		return true
	default:
		if r.err == nil {
			r.err = fmt.Errorf("presence byte: %w", ErrInvalidDiscriminant)
		}
		return false
	}
}

func (r *reader) appState() msgs.AppState {
	s := msgs.AppState(r.u8())
	if r.err == nil && !s.IsValid() {
		r.err = fmt.Errorf("app state %d: %w", uint8(s), ErrInvalidDiscriminant)
	}
	return s
}
