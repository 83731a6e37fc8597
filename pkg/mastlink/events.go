// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mastlink

import (
	"errors"
	"fmt"
)

// EventType classifies unsolicited EV frames.
type EventType int

const (
	EventOutput  EventType = 0
	EventInput   EventType = 1
	EventSensor  EventType = 2
	EventUnknown EventType = -1
)

func (t EventType) String() string {
	switch t {
	case EventOutput:
		return "OUTPUT"
	case EventInput:
		return "INPUT"
	case EventSensor:
		return "SENSOR"
	}
	return "UNKNOWN"
}

// TimerType describes the timer resolution attached to an output event.
type TimerType int

const (
	TimerNone TimerType = iota
	Timer100Ms
	Timer1S
	Timer1M
)

func (t TimerType) String() string {
	switch t {
	case Timer100Ms:
		return "100_MS"
	case Timer1S:
		return "1_S"
	case Timer1M:
		return "1_M"
	}
	return "NO_TIMER"
}

// Event is one decoded master push notification.
type Event struct {
	Type     EventType
	Action   int
	DeviceNr int
	Data     []byte // 4 raw bytes, meaning depends on Type
}

// ParseEvent builds an Event from the fields of an EventInformation frame.
func ParseEvent(fields Fields) (*Event, error) {
	eventType, ok := fields.Int("type")
	if !ok {
		return nil, errors.New("event fields missing type")
	}
	action, ok := fields.Int("action")
	if !ok {
		return nil, errors.New("event fields missing action")
	}
	deviceNr, ok := fields.Int("device_nr")
	if !ok {
		return nil, errors.New("event fields missing device_nr")
	}
	data, ok := fields.Bytes("data")
	if !ok || len(data) < 4 {
		return nil, errors.New("event fields missing data")
	}
	parsed := EventUnknown
	switch EventType(eventType) {
	case EventOutput, EventInput, EventSensor:
		parsed = EventType(eventType)
	}
	return &Event{Type: parsed, Action: action, DeviceNr: deviceNr, Data: data}, nil
}

// OutputEvent is the decoded view of an output state change.
type OutputEvent struct {
	Output      int
	Status      bool
	DimmerValue int
	TimerType   TimerType
	TimerValue  int
}

// Output returns the output view of the event, if it is an output event.
func (e *Event) Output() (OutputEvent, bool) {
	if e.Type != EventOutput {
		return OutputEvent{}, false
	}
	timerType := TimerNone
	if e.Data[1] == 1 {
		timerType = Timer100Ms
	} else if e.Data[1] == 2 {
		timerType = Timer1S
	} else if e.Data[2] == 2 {
		timerType = Timer1M
	}
	return OutputEvent{
		Output:      e.DeviceNr,
		Status:      e.Action == 1,
		DimmerValue: int(e.Data[0]),
		TimerType:   timerType,
		TimerValue:  int(e.Data[2])<<8 | int(e.Data[3]),
	}, true
}

// InputEvent is the decoded view of an input state change.
type InputEvent struct {
	Input  int
	Status bool
}

// Input returns the input view of the event, if it is an input event.
func (e *Event) Input() (InputEvent, bool) {
	if e.Type != EventInput {
		return InputEvent{}, false
	}
	return InputEvent{Input: e.DeviceNr, Status: e.Action == 1}, true
}

// SensorKind classifies sensor event values.
type SensorKind int

const (
	SensorUnknown SensorKind = iota
	SensorTemperature
	SensorHumidity
	SensorBrightness
)

func (k SensorKind) String() string {
	switch k {
	case SensorTemperature:
		return "TEMPERATURE"
	case SensorHumidity:
		return "HUMIDITY"
	case SensorBrightness:
		return "BRIGHTNESS"
	}
	return "UNKNOWN"
}

// SensorEvent is the decoded view of a sensor value report.
type SensorEvent struct {
	Sensor int
	Kind   SensorKind
	Value  int
}

// Sensor returns the sensor view of the event, if it is a sensor event.
func (e *Event) Sensor() (SensorEvent, bool) {
	if e.Type != EventSensor {
		return SensorEvent{}, false
	}
	out := SensorEvent{Sensor: e.DeviceNr, Kind: SensorUnknown}
	switch e.Action {
	case 0:
		out.Kind = SensorTemperature
		out.Value = int(e.Data[1])
	case 1:
		out.Kind = SensorHumidity
		out.Value = int(e.Data[1])
	case 2:
		out.Kind = SensorBrightness
		out.Value = int(e.Data[0])<<8 | int(e.Data[1])
	}
	return out, true
}

func (e *Event) String() string {
	if v, ok := e.Output(); ok {
		return fmt.Sprintf("OUTPUT %d status=%t dimmer=%d timer=%s/%d",
			v.Output, v.Status, v.DimmerValue, v.TimerType, v.TimerValue)
	}
	if v, ok := e.Input(); ok {
		return fmt.Sprintf("INPUT %d status=%t", v.Input, v.Status)
	}
	if v, ok := e.Sensor(); ok {
		return fmt.Sprintf("SENSOR %d %s value=%d", v.Sensor, v.Kind, v.Value)
	}
	return fmt.Sprintf("UNKNOWN type=%d action=%d device_nr=%d data=% 02X",
		e.Type, e.Action, e.DeviceNr, e.Data)
}
