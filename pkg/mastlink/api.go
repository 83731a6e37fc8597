// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mastlink

// Command table of the core master. Each function returns the CommandSpec of
// one instruction; specs are cheap to build and carry no state.

// BasicAction executes a basic action on the master (switch an output, move
// a shutter, arm an alarm, ...).
func BasicAction() *CommandSpec {
	return NewCommand("BA",
		[]Field{ByteField("type"), ByteField("action"), WordField("device_nr"), WordField("extra_parameter")},
		[]Field{ByteField("type"), ByteField("action"), WordField("device_nr"), WordField("extra_parameter")})
}

// EventInformation is pushed by the master on state changes (outputs, inputs,
// sensors). There is no request; register a background consumer for it.
func EventInformation() *CommandSpec {
	return NewCommand("EV",
		nil,
		[]Field{ByteField("type"), ByteField("action"), WordField("device_nr"), ByteArrayField("data", 4)})
}

// ErrorInformation is pushed by the master when it detects a bus or module
// error.
func ErrorInformation() *CommandSpec {
	return NewCommand("ER",
		nil,
		[]Field{ByteField("type"), ByteField("parameter_a"), WordField("parameter_b"), WordField("parameter_c")})
}

// FirmwareStatus reports the master firmware version and operating mode.
func FirmwareStatus() *CommandSpec {
	return NewCommand("ST",
		nil,
		[]Field{VersionField("version"), ByteField("mode")})
}

// DeviceInformationListOutputs lists the known output devices.
func DeviceInformationListOutputs() *CommandSpec {
	return NewCommand("DL",
		[]Field{LiteralBytesField(0)},
		[]Field{ByteField("type"), RemainingBytesField("information")})
}

// DeviceInformationListInputs lists the known input devices.
func DeviceInformationListInputs() *CommandSpec {
	return NewCommand("DL",
		[]Field{LiteralBytesField(1)},
		[]Field{ByteField("type"), RemainingBytesField("information")})
}

// GeneralConfigurationNumberOfModules reports how many modules of each family
// are installed.
func GeneralConfigurationNumberOfModules() *CommandSpec {
	return NewCommand("GC",
		[]Field{LiteralBytesField(0)},
		[]Field{ByteField("type"), ByteField("output"), ByteField("input"), ByteField("sensor"), ByteField("ucan"), ByteField("ucan_input"), ByteField("ucan_sensor")})
}

// GeneralConfigurationMaxSpecs reports the maximum capacities of the master
// (module counts, group counts, basic action slots).
func GeneralConfigurationMaxSpecs() *CommandSpec {
	return NewCommand("GC",
		[]Field{LiteralBytesField(1)},
		[]Field{ByteField("type"), ByteField("output"), ByteField("input"), ByteField("sensor"), ByteField("ucan"), WordField("groups"), WordField("basic_actions"), ByteField("shutters"), ByteField("shutter_groups")})
}

// ModuleInformation reports the type, address and health of one module.
func ModuleInformation() *CommandSpec {
	return NewCommand("MC",
		[]Field{ByteField("module_nr"), ByteField("module_family")},
		[]Field{ByteField("module_nr"), ByteField("module_family"), ByteField("module_type"), AddressField("address", 4), WordField("bus_errors"), ByteField("module_status")})
}

// MemoryRead reads a slice of EEPROM or FRAM memory.
func MemoryRead() *CommandSpec {
	return NewCommand("MR",
		[]Field{CharField("type"), WordField("page"), ByteField("start"), ByteField("length")},
		[]Field{CharField("type"), WordField("page"), ByteField("start"), RemainingBytesField("data")})
}

// MemoryWrite writes a slice of EEPROM or FRAM memory.
func MemoryWrite(length int) *CommandSpec {
	return NewCommand("MW",
		[]Field{CharField("type"), WordField("page"), ByteField("start"), ByteArrayField("data", length)},
		[]Field{CharField("type"), WordField("page"), ByteField("start"), ByteField("length"), CharField("result")})
}
