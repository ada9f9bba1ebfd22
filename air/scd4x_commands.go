package air

import (
	"time"

	"github.com/mklimuk/sensirion/protocol"
)

// SCD4x command set. Execution times are the datasheet maximums; the sensor
// NACKs (or returns stale data) if it is addressed earlier.
var (
	cmdGetSerialNumber = protocol.Command{Name: "get_serial_number", Opcode: 0x3682, Settle: time.Millisecond, ResponseSize: 9}
	cmdStartPeriodic   = protocol.Command{Name: "start_periodic_measurement", Opcode: 0x21b1}
	cmdStartLowPower   = protocol.Command{Name: "start_low_power_periodic_measurement", Opcode: 0x21ac}
	cmdStopPeriodic    = protocol.Command{Name: "stop_periodic_measurement", Opcode: 0x3f86, Settle: 500 * time.Millisecond, WhileMeasuring: true}
	cmdReadMeasurement = protocol.Command{Name: "read_measurement", Opcode: 0xec05, Settle: time.Millisecond, ResponseSize: 9, WhileMeasuring: true}
	cmdDataReady       = protocol.Command{Name: "get_data_ready_status", Opcode: 0xe4b8, Settle: time.Millisecond, ResponseSize: 3, WhileMeasuring: true}

	cmdSetTemperatureOffset = protocol.Command{Name: "set_temperature_offset", Opcode: 0x241d, Settle: time.Millisecond, PayloadWords: 1}
	cmdGetTemperatureOffset = protocol.Command{Name: "get_temperature_offset", Opcode: 0x2318, Settle: time.Millisecond, ResponseSize: 3}
	cmdSetAltitude          = protocol.Command{Name: "set_sensor_altitude", Opcode: 0x2427, Settle: time.Millisecond, PayloadWords: 1}
	cmdGetAltitude          = protocol.Command{Name: "get_sensor_altitude", Opcode: 0x2322, Settle: time.Millisecond, ResponseSize: 3}
	cmdSetAmbientPressure   = protocol.Command{Name: "set_ambient_pressure", Opcode: 0xe000, Settle: time.Millisecond, PayloadWords: 1, WhileMeasuring: true}
	cmdGetAmbientPressure   = protocol.Command{Name: "get_ambient_pressure", Opcode: 0xe000, Settle: time.Millisecond, ResponseSize: 3, WhileMeasuring: true}

	cmdForceRecalibration = protocol.Command{Name: "perform_forced_recalibration", Opcode: 0x362f, Settle: 400 * time.Millisecond, PayloadWords: 1, ResponseSize: 3}
	cmdSetASCEnabled      = protocol.Command{Name: "set_automatic_self_calibration_enabled", Opcode: 0x2416, Settle: time.Millisecond, PayloadWords: 1}
	cmdGetASCEnabled      = protocol.Command{Name: "get_automatic_self_calibration_enabled", Opcode: 0x2313, Settle: time.Millisecond, ResponseSize: 3}
	cmdSetASCTarget       = protocol.Command{Name: "set_automatic_self_calibration_target", Opcode: 0x243a, Settle: time.Millisecond, PayloadWords: 1}
	cmdGetASCTarget       = protocol.Command{Name: "get_automatic_self_calibration_target", Opcode: 0x233f, Settle: time.Millisecond, ResponseSize: 3}

	cmdPersistSettings = protocol.Command{Name: "persist_settings", Opcode: 0x3615, Settle: 800 * time.Millisecond}
	cmdGetVariant      = protocol.Command{Name: "get_sensor_variant", Opcode: 0x202f, Settle: time.Millisecond, ResponseSize: 3}
	cmdSelfTest        = protocol.Command{Name: "perform_self_test", Opcode: 0x3639, Settle: 10 * time.Second, ResponseSize: 3}
	cmdFactoryReset    = protocol.Command{Name: "perform_factory_reset", Opcode: 0x3632, Settle: 1200 * time.Millisecond}
	cmdReinit          = protocol.Command{Name: "reinit", Opcode: 0x3646, Settle: 20 * time.Millisecond}

	// SCD41 only
	cmdMeasureSingleShot        = protocol.Command{Name: "measure_single_shot", Opcode: 0x219d}
	cmdMeasureSingleShotRHTOnly = protocol.Command{Name: "measure_single_shot_rht_only", Opcode: 0x2196}
	cmdPowerDown                = protocol.Command{Name: "power_down", Opcode: 0x36e0, Settle: time.Millisecond}
	cmdWakeUp                   = protocol.Command{Name: "wake_up", Opcode: 0x36f6, Settle: 20 * time.Millisecond}
)
