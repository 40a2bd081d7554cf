package sht3x

import (
	"fmt"
	"time"

	"rover-ng/internal/i2c"
)

var sleep = time.Sleep

// Minimal SHT3x (SHT30/31/35) driver.
//
// Single-shot, high repeatability, no clock stretching. Every word the sensor
// returns is followed by a CRC-8 which is checked.

const (
	addrDefault = 0x44

	cmdSoftReset   = 0x30A2
	cmdReadStatus  = 0xF32D
	cmdMeasureHigh = 0x2400

	resetDelay   = 2 * time.Millisecond
	measureDelay = 15 * time.Millisecond

	crcInit = 0xFF
	crcPoly = 0x31
)

type busIO interface {
	Write(p []byte) (int, error)
	Read(p []byte) error
}

type Device struct {
	dev busIO
}

func DefaultAddress() uint16 { return addrDefault }

func New(dev *i2c.Dev) (*Device, error) {
	if dev == nil {
		return nil, fmt.Errorf("sht3x: dev is nil")
	}
	return newWithIO(dev)
}

func newWithIO(dev busIO) (*Device, error) {
	if dev == nil {
		return nil, fmt.Errorf("sht3x: dev is nil")
	}
	d := &Device{dev: dev}

	if err := d.command(cmdSoftReset); err != nil {
		return nil, fmt.Errorf("sht3x: soft reset failed: %w", err)
	}
	sleep(resetDelay)

	// Status read doubles as a probe: a wrong device fails the CRC.
	if err := d.command(cmdReadStatus); err != nil {
		return nil, fmt.Errorf("sht3x: status command failed: %w", err)
	}
	var st [3]byte
	if err := d.dev.Read(st[:]); err != nil {
		return nil, fmt.Errorf("sht3x: status read failed: %w", err)
	}
	if crc8(st[:2]) != st[2] {
		return nil, fmt.Errorf("sht3x: status crc mismatch")
	}
	return d, nil
}

func (d *Device) command(cmd uint16) error {
	n, err := d.dev.Write([]byte{byte(cmd >> 8), byte(cmd)})
	if err != nil {
		return err
	}
	if n != 2 {
		return fmt.Errorf("short write %d/2", n)
	}
	return nil
}

// Read returns temperature (C) and relative humidity (%).
func (d *Device) Read() (tempC float64, humidity float64, err error) {
	if d == nil {
		return 0, 0, fmt.Errorf("sht3x: device is nil")
	}
	if err := d.command(cmdMeasureHigh); err != nil {
		return 0, 0, fmt.Errorf("sht3x: measure command failed: %w", err)
	}
	sleep(measureDelay)

	var buf [6]byte
	if err := d.dev.Read(buf[:]); err != nil {
		return 0, 0, fmt.Errorf("sht3x: read data failed: %w", err)
	}
	if crc8(buf[0:2]) != buf[2] {
		return 0, 0, fmt.Errorf("sht3x: temperature crc mismatch")
	}
	if crc8(buf[3:5]) != buf[5] {
		return 0, 0, fmt.Errorf("sht3x: humidity crc mismatch")
	}

	rawT := uint16(buf[0])<<8 | uint16(buf[1])
	rawH := uint16(buf[3])<<8 | uint16(buf[4])
	tempC = -45.0 + 175.0*float64(rawT)/65535.0
	humidity = 100.0 * float64(rawH) / 65535.0
	return tempC, humidity, nil
}

func crc8(data []byte) byte {
	crc := byte(crcInit)
	for _, b := range data {
		crc ^= b
		for i := 0; i < 8; i++ {
			if crc&0x80 != 0 {
				crc = crc<<1 ^ crcPoly
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
