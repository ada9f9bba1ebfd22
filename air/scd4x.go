package air

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"periph.io/x/conn/v3/physic"

	"github.com/mklimuk/sensirion"
	"github.com/mklimuk/sensirion/bitfield"
	"github.com/mklimuk/sensirion/protocol"
	"github.com/mklimuk/sensirion/snsctx"
)

// SCD4x default 7-bit I2C address.
const scd4xDefaultAddress = 0x62

var (
	// ErrRecalibrationFailed is returned when the sensor answers a forced
	// recalibration with 0xFFFF, typically because it was not measuring for at
	// least 3 minutes before the command.
	ErrRecalibrationFailed = errors.New("scd4x: forced recalibration failed")
	ErrUnknownVariant      = errors.New("scd4x: unknown sensor variant")
)

// variantField holds the variant code in the get_sensor_variant word.
var variantField = bitfield.Must(12, 15)

// Variant selects the operation set available on the sensor.
type Variant uint8

const (
	// SCD40 is the base model.
	SCD40 Variant = iota
	// SCD41 adds single shot measurement and power management.
	SCD41
)

func (v Variant) String() string {
	switch v {
	case SCD40:
		return "SCD40"
	case SCD41:
		return "SCD41"
	}
	return fmt.Sprintf("Variant(%d)", v)
}

// ParseVariant accepts "scd40" or "scd41" in any case.
func ParseVariant(s string) (Variant, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "SCD40":
		return SCD40, nil
	case "SCD41":
		return SCD41, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownVariant, s)
}

// Mode is the measurement mode tracked by the driver.
type Mode uint8

const (
	ModeIdle Mode = iota
	ModePeriodic
	ModeLowPowerPeriodic
	ModeSingleShot
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModePeriodic:
		return "periodic"
	case ModeLowPowerPeriodic:
		return "low-power periodic"
	case ModeSingleShot:
		return "single-shot"
	}
	return fmt.Sprintf("Mode(%d)", m)
}

const (
	periodicInterval         = 5 * time.Second
	lowPowerPeriodicInterval = 30 * time.Second
	rhtOnlyConversionTime    = 50 * time.Millisecond
)

type SCD4xConfig struct {
	Address byte
	Variant Variant
	Engine  []protocol.Option
}

type SCD4xOption func(*SCD4xConfig)

func WithAddress(address byte) SCD4xOption {
	return func(c *SCD4xConfig) {
		c.Address = address
	}
}

// WithVariant selects the sensor model. SCD40 is assumed by default.
func WithVariant(v Variant) SCD4xOption {
	return func(c *SCD4xConfig) {
		c.Variant = v
	}
}

func WithCRCCheck(enabled bool) SCD4xOption {
	return func(c *SCD4xConfig) {
		c.Engine = append(c.Engine, protocol.WithCRCCheck(enabled))
	}
}

// WithSleeper replaces the settle time wait (tests).
func WithSleeper(s protocol.Sleeper) SCD4xOption {
	return func(c *SCD4xConfig) {
		c.Engine = append(c.Engine, protocol.WithSleeper(s))
	}
}

func WithClock(now func() time.Time) SCD4xOption {
	return func(c *SCD4xConfig) {
		c.Engine = append(c.Engine, protocol.WithClock(now))
	}
}

// SCD4x represents Sensirion SCD40/SCD41 CO2, temperature and humidity sensor.
// See: https://sensirion.com/media/documents/48C4B7FB/64C134E7/Sensirion_SCD4x_Datasheet.pdf
//
// Typical usage:
//
//	s := NewSCD4x(bus, WithVariant(SCD41))
//	err := s.StartPeriodicMeasurement(ctx)
//	...
//	m, ok, err := s.Cursor().Poll(ctx)
//
// The driver keeps no lock. Calls from several goroutines must be serialized
// by the caller.
type SCD4x struct {
	engine  *protocol.Engine
	variant Variant
	mode    Mode
	rhtOnly bool
}

func NewSCD4x(transport sensirion.I2CBus, opts ...SCD4xOption) *SCD4x {
	config := &SCD4xConfig{
		Address: scd4xDefaultAddress,
		Variant: SCD40,
	}
	for _, opt := range opts {
		opt(config)
	}
	return &SCD4x{
		engine:  protocol.NewEngine(transport, config.Address, config.Engine...),
		variant: config.Variant,
	}
}

func (s *SCD4x) Address() byte {
	return s.engine.Address()
}

func (s *SCD4x) Variant() Variant {
	return s.variant
}

func (s *SCD4x) Mode() Mode {
	return s.mode
}

// IsContinuousMode reports whether a periodic measurement (normal or low power)
// is running.
func (s *SCD4x) IsContinuousMode() bool {
	return s.mode == ModePeriodic || s.mode == ModeLowPowerPeriodic
}

func (s *SCD4x) IsSingleShotMode() bool {
	return s.mode == ModeSingleShot
}

func (s *SCD4x) IsRHTOnly() bool {
	return s.rhtOnly
}

// ConversionCycleTime is how long a caller should wait for the next sample in
// the current mode.
func (s *SCD4x) ConversionCycleTime() time.Duration {
	switch {
	case s.mode == ModeSingleShot && s.rhtOnly:
		return rhtOnlyConversionTime
	case s.mode == ModeLowPowerPeriodic:
		return lowPowerPeriodicInterval
	}
	return periodicInterval
}

func (s *SCD4x) exec(ctx context.Context, cmd protocol.Command, payload ...uint16) (protocol.Frame, error) {
	if !cmd.WhileMeasuring && s.IsContinuousMode() {
		return nil, fmt.Errorf("scd4x: %s: %w (%s)", cmd.Name, protocol.ErrPrecondition, s.mode)
	}
	frame, err := s.engine.Exec(ctx, cmd, payload...)
	if err != nil {
		return nil, fmt.Errorf("scd4x: %w", err)
	}
	return frame, nil
}

func (s *SCD4x) requireVariant(cmd protocol.Command, v Variant) error {
	if s.variant != v {
		return fmt.Errorf("scd4x: %s on %s: %w", cmd.Name, s.variant, protocol.ErrUnsupported)
	}
	return nil
}

func wordArg(cmd protocol.Command, v int) (uint16, error) {
	if v < 0 || v > math.MaxUint16 {
		return 0, fmt.Errorf("scd4x: %s: %w: %d not in [0, %d]", cmd.Name, protocol.ErrRange, v, math.MaxUint16)
	}
	return uint16(v), nil
}

func boolWord(b bool) uint16 {
	if b {
		return 1
	}
	return 0
}

// GetID returns the three words of the serial number.
func (s *SCD4x) GetID(ctx context.Context) ([3]uint16, error) {
	frame, err := s.exec(ctx, cmdGetSerialNumber)
	if err != nil {
		return [3]uint16{}, err
	}
	return [3]uint16{frame.Word(0), frame.Word(1), frame.Word(2)}, nil
}

// SerialNumber returns the 48-bit serial number.
func (s *SCD4x) SerialNumber(ctx context.Context) (uint64, error) {
	id, err := s.GetID(ctx)
	if err != nil {
		return 0, err
	}
	return uint64(id[0])<<32 | uint64(id[1])<<16 | uint64(id[2]), nil
}

// StartPeriodicMeasurement starts measuring every 5 seconds.
func (s *SCD4x) StartPeriodicMeasurement(ctx context.Context) error {
	if _, err := s.exec(ctx, cmdStartPeriodic); err != nil {
		return err
	}
	s.mode = ModePeriodic
	s.rhtOnly = false
	return nil
}

// StartLowPowerPeriodicMeasurement starts measuring every 30 seconds.
func (s *SCD4x) StartLowPowerPeriodicMeasurement(ctx context.Context) error {
	if _, err := s.exec(ctx, cmdStartLowPower); err != nil {
		return err
	}
	s.mode = ModeLowPowerPeriodic
	s.rhtOnly = false
	return nil
}

// StopPeriodicMeasurement returns the sensor to idle. It also leaves single
// shot mode.
func (s *SCD4x) StopPeriodicMeasurement(ctx context.Context) error {
	if _, err := s.exec(ctx, cmdStopPeriodic); err != nil {
		return err
	}
	s.mode = ModeIdle
	s.rhtOnly = false
	return nil
}

// ReadMeasurement reads the last sample. The sensor clears its buffer on
// read, so a second call before the next conversion returns an error from
// the device.
func (s *SCD4x) ReadMeasurement(ctx context.Context) (Measurement, error) {
	frame, err := s.exec(ctx, cmdReadMeasurement)
	if err != nil {
		return Measurement{}, err
	}
	return decodeMeasurement(frame.Words()), nil
}

func (s *SCD4x) IsDataReady(ctx context.Context) (bool, error) {
	frame, err := s.exec(ctx, cmdDataReady)
	if err != nil {
		return false, err
	}
	return dataReady(frame.Word(0)), nil
}

// SetTemperatureOffset sets the offset (°C) subtracted from the measured
// temperature. Idle mode only.
func (s *SCD4x) SetTemperatureOffset(ctx context.Context, celsius float64) error {
	w, err := offsetToWord(celsius)
	if err != nil {
		return fmt.Errorf("scd4x: %w", err)
	}
	_, err = s.exec(ctx, cmdSetTemperatureOffset, w)
	return err
}

func (s *SCD4x) GetTemperatureOffset(ctx context.Context) (float64, error) {
	frame, err := s.exec(ctx, cmdGetTemperatureOffset)
	if err != nil {
		return 0, err
	}
	return offsetFromWord(frame.Word(0)), nil
}

// SetAltitude sets the sensor altitude in metres above sea level. Idle mode
// only.
func (s *SCD4x) SetAltitude(ctx context.Context, metres int) error {
	w, err := wordArg(cmdSetAltitude, metres)
	if err != nil {
		return err
	}
	_, err = s.exec(ctx, cmdSetAltitude, w)
	return err
}

func (s *SCD4x) GetAltitude(ctx context.Context) (uint16, error) {
	frame, err := s.exec(ctx, cmdGetAltitude)
	if err != nil {
		return 0, err
	}
	return frame.Word(0), nil
}

// SetAmbientPressure overrides altitude compensation. It may be sent while
// measuring.
func (s *SCD4x) SetAmbientPressure(ctx context.Context, p physic.Pressure) error {
	w, err := pressureToWord(p)
	if err != nil {
		return fmt.Errorf("scd4x: %w", err)
	}
	_, err = s.exec(ctx, cmdSetAmbientPressure, w)
	return err
}

func (s *SCD4x) GetAmbientPressure(ctx context.Context) (physic.Pressure, error) {
	frame, err := s.exec(ctx, cmdGetAmbientPressure)
	if err != nil {
		return 0, err
	}
	return pressureFromWord(frame.Word(0)), nil
}

// ForceRecalibration tells the sensor the current CO2 concentration is
// targetPPM and returns the applied correction in ppm. The sensor must have
// been measuring for 3 minutes and be stopped before the call.
func (s *SCD4x) ForceRecalibration(ctx context.Context, targetPPM int) (int, error) {
	w, err := wordArg(cmdForceRecalibration, targetPPM)
	if err != nil {
		return 0, err
	}
	frame, err := s.exec(ctx, cmdForceRecalibration, w)
	if err != nil {
		return 0, err
	}
	correction := frame.Word(0)
	if correction == frcFailed {
		return 0, ErrRecalibrationFailed
	}
	return int(correction) - frcCorrectionRef, nil
}

func (s *SCD4x) SetAutomaticSelfCalibration(ctx context.Context, enabled bool) error {
	_, err := s.exec(ctx, cmdSetASCEnabled, boolWord(enabled))
	return err
}

func (s *SCD4x) GetAutomaticSelfCalibration(ctx context.Context) (bool, error) {
	frame, err := s.exec(ctx, cmdGetASCEnabled)
	if err != nil {
		return false, err
	}
	return frame.Word(0) != 0, nil
}

// SetASCTarget sets the baseline (ppm) automatic self calibration assumes
// the sensor is exposed to at least once a week.
func (s *SCD4x) SetASCTarget(ctx context.Context, ppm int) error {
	w, err := wordArg(cmdSetASCTarget, ppm)
	if err != nil {
		return err
	}
	_, err = s.exec(ctx, cmdSetASCTarget, w)
	return err
}

func (s *SCD4x) GetASCTarget(ctx context.Context) (uint16, error) {
	frame, err := s.exec(ctx, cmdGetASCTarget)
	if err != nil {
		return 0, err
	}
	return frame.Word(0), nil
}

// MeasureSingleShot triggers one measurement (SCD41 only). The sample can be
// read after ConversionCycleTime. With rhtOnly the CO2 value reads as zero.
func (s *SCD4x) MeasureSingleShot(ctx context.Context, rhtOnly bool) error {
	cmd := cmdMeasureSingleShot
	if rhtOnly {
		cmd = cmdMeasureSingleShotRHTOnly
	}
	if err := s.requireVariant(cmd, SCD41); err != nil {
		return err
	}
	if _, err := s.exec(ctx, cmd); err != nil {
		return err
	}
	s.mode = ModeSingleShot
	s.rhtOnly = rhtOnly
	return nil
}

// SetPower wakes the sensor up or puts it to sleep (SCD41 only). The sensor
// does not acknowledge the wake up command, so a failed wake up write is
// ignored.
func (s *SCD4x) SetPower(ctx context.Context, on bool) error {
	cmd := cmdPowerDown
	if on {
		cmd = cmdWakeUp
	}
	if err := s.requireVariant(cmd, SCD41); err != nil {
		return err
	}
	_, err := s.exec(ctx, cmd)
	if err == nil {
		return nil
	}
	if on && !errors.Is(err, protocol.ErrPrecondition) && ctx.Err() == nil {
		snsctx.Logger(ctx).DebugContext(ctx, "scd4x: wake up not acknowledged", "err", err)
		s.engine.Hold(cmdWakeUp.Settle)
		return nil
	}
	return err
}

// PersistSettings stores the configuration in EEPROM. The EEPROM is rated for
// about 2000 write cycles; call it only after an actual change.
func (s *SCD4x) PersistSettings(ctx context.Context) error {
	_, err := s.exec(ctx, cmdPersistSettings)
	return err
}

// SelfTest runs the built-in self test, which takes 10 seconds.
func (s *SCD4x) SelfTest(ctx context.Context) (bool, error) {
	frame, err := s.exec(ctx, cmdSelfTest)
	if err != nil {
		return false, err
	}
	return frame.Word(0) == 0, nil
}

// Reinit reloads the user settings from EEPROM.
func (s *SCD4x) Reinit(ctx context.Context) error {
	_, err := s.exec(ctx, cmdReinit)
	return err
}

// FactoryReset erases the user configuration and calibration history.
func (s *SCD4x) FactoryReset(ctx context.Context) error {
	_, err := s.exec(ctx, cmdFactoryReset)
	return err
}

// ReadVariant asks the sensor which model it is.
func (s *SCD4x) ReadVariant(ctx context.Context) (Variant, error) {
	frame, err := s.exec(ctx, cmdGetVariant)
	if err != nil {
		return 0, err
	}
	code := variantField.Get(uint32(frame.Word(0)))
	switch code {
	case 0:
		return SCD40, nil
	case 1:
		return SCD41, nil
	}
	return 0, fmt.Errorf("%w: code %d (word %#04x)", ErrUnknownVariant, code, frame.Word(0))
}

// Cursor returns a pull cursor over the sensor samples.
func (s *SCD4x) Cursor() *Cursor {
	return &Cursor{sensor: s}
}
