// Package wire implements the fixed-layout binary encoding shared
// with the mockloop rig firmware. The layout is the contract: field
// order is declaration order, every field is fixed width, all
// multi-byte values are little-endian, and floats travel as IEEE-754
// single-precision bits of their canonical unit.
//
//	Setpoint:     u8 presence [f32 Rs, f32 Rp, f32 Cs, f32 Cp]
//	              u8 presence [f32 rate_hz, f32 pressure_pa, f32 systole]
//	Measurements: u64 timestamp_ms, f32 reg_pa,
//	              f32 sys_flow_m3s, f32 pul_flow_m3s,
//	              f32 spp_pa, f32 sap_pa, f32 ppp_pa, f32 pap_pa
//	Report:       Setpoint, u8 state, Measurements
//
// Presence bytes are 0x00 (absent) or 0x01 (present); state is the
// msgs.AppState value 0/1/2. Any other discriminant fails decoding
// with ErrInvalidDiscriminant — an unknown state never falls back to
// StandBy.
//
// Encoders are all-or-nothing: the exact size is computed first and
// nothing is written unless the whole value fits. Decoders consume
// exactly the encoded bytes, report the count, and leave trailing
// bytes to the caller. All functions are stateless and safe for
// concurrent use; buffers are caller-owned and nothing here grows or
// retains them.
package wire
