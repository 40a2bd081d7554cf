package bme280

import (
	"encoding/binary"
	"fmt"
	"time"

	"rover-ng/internal/i2c"
)

var sleep = time.Sleep

// Minimal BME280 driver.
//
// Supports chip ID + reading compensated temperature/pressure/humidity in
// normal mode.

const (
	addrDefault = 0x76

	regID        = 0xD0
	chipIDBME280 = 0x60

	regReset = 0xE0
	resetCmd = 0xB6

	regCalib00 = 0x88
	calibLen   = 24
	regCalibH1 = 0xA1
	regCalibH2 = 0xE1
	calibHLen  = 7

	regCtrlHum  = 0xF2
	regCtrlMeas = 0xF4
	regConfig   = 0xF5
	regPressMsb = 0xF7
	dataLen     = 8
)

type Device struct {
	dev regIO

	// Calibration.
	digT1 uint16
	digT2 int16
	digT3 int16
	digP1 uint16
	digP2 int16
	digP3 int16
	digP4 int16
	digP5 int16
	digP6 int16
	digP7 int16
	digP8 int16
	digP9 int16
	digH1 uint8
	digH2 int16
	digH3 uint8
	digH4 int16
	digH5 int16
	digH6 int8

	tFine int32
}

type regIO interface {
	ReadRegU8(reg byte) (byte, error)
	ReadReg(reg byte, dst []byte) error
	WriteReg(reg, value byte) error
}

func DefaultAddress() uint16 { return addrDefault }

func New(dev *i2c.Dev) (*Device, error) {
	if dev == nil {
		return nil, fmt.Errorf("bme280: dev is nil")
	}
	return newWithIO(dev)
}

func newWithIO(dev regIO) (*Device, error) {
	if dev == nil {
		return nil, fmt.Errorf("bme280: dev is nil")
	}
	d := &Device{dev: dev}

	id, err := d.dev.ReadRegU8(regID)
	if err != nil {
		return nil, fmt.Errorf("bme280: id read failed: %w", err)
	}
	if id != chipIDBME280 {
		return nil, fmt.Errorf("bme280: chip id=0x%02X want 0x%02X", id, chipIDBME280)
	}

	// NVM calibration is copied after reset; reading too early yields zeros.
	_ = d.dev.WriteReg(regReset, resetCmd)
	sleep(5 * time.Millisecond)

	var calibErr error
	for i := 0; i < 3; i++ {
		calibErr = d.readCalibration()
		if calibErr != nil {
			sleep(5 * time.Millisecond)
			continue
		}
		if d.digT1 != 0 && d.digP1 != 0 {
			calibErr = nil
			break
		}
		calibErr = fmt.Errorf("bme280: calibration invalid (digT1=%d digP1=%d)", d.digT1, d.digP1)
		sleep(5 * time.Millisecond)
	}
	if calibErr != nil {
		return nil, calibErr
	}

	// standby 62.5ms, filter off.
	_ = d.dev.WriteReg(regConfig, 0x01<<5)

	// ctrl_hum only latches on the following ctrl_meas write.
	if err := d.dev.WriteReg(regCtrlHum, 0x01); err != nil {
		return nil, fmt.Errorf("bme280: ctrl_hum write failed: %w", err)
	}
	// osrs_t x1, osrs_p x1, normal mode.
	ctrl := byte(0x01<<5) | byte(0x01<<2) | 0x03
	if err := d.dev.WriteReg(regCtrlMeas, ctrl); err != nil {
		return nil, fmt.Errorf("bme280: ctrl_meas write failed: %w", err)
	}

	return d, nil
}

func (d *Device) readCalibration() error {
	buf := make([]byte, calibLen)
	if err := d.dev.ReadReg(regCalib00, buf); err != nil {
		return fmt.Errorf("bme280: read calib failed: %w", err)
	}
	d.digT1 = binary.LittleEndian.Uint16(buf[0:2])
	d.digT2 = int16(binary.LittleEndian.Uint16(buf[2:4]))
	d.digT3 = int16(binary.LittleEndian.Uint16(buf[4:6]))
	d.digP1 = binary.LittleEndian.Uint16(buf[6:8])
	d.digP2 = int16(binary.LittleEndian.Uint16(buf[8:10]))
	d.digP3 = int16(binary.LittleEndian.Uint16(buf[10:12]))
	d.digP4 = int16(binary.LittleEndian.Uint16(buf[12:14]))
	d.digP5 = int16(binary.LittleEndian.Uint16(buf[14:16]))
	d.digP6 = int16(binary.LittleEndian.Uint16(buf[16:18]))
	d.digP7 = int16(binary.LittleEndian.Uint16(buf[18:20]))
	d.digP8 = int16(binary.LittleEndian.Uint16(buf[20:22]))
	d.digP9 = int16(binary.LittleEndian.Uint16(buf[22:24]))

	h1, err := d.dev.ReadRegU8(regCalibH1)
	if err != nil {
		return fmt.Errorf("bme280: read calib h1 failed: %w", err)
	}
	hb := make([]byte, calibHLen)
	if err := d.dev.ReadReg(regCalibH2, hb); err != nil {
		return fmt.Errorf("bme280: read calib h2..h6 failed: %w", err)
	}
	d.digH1 = h1
	d.digH2 = int16(binary.LittleEndian.Uint16(hb[0:2]))
	d.digH3 = hb[2]
	// H4 and H5 share the nibbles of 0xE5.
	d.digH4 = int16(int8(hb[3]))<<4 | int16(hb[4]&0x0F)
	d.digH5 = int16(int8(hb[5]))<<4 | int16(hb[4]>>4)
	d.digH6 = int8(hb[6])
	return nil
}

// Read returns compensated temperature (C), pressure (Pa) and relative
// humidity (%).
func (d *Device) Read() (tempC, pressPa, humidity float64, err error) {
	buf := make([]byte, dataLen)
	if err := d.dev.ReadReg(regPressMsb, buf); err != nil {
		return 0, 0, 0, fmt.Errorf("bme280: read data failed: %w", err)
	}

	adcP := int32(buf[0])<<12 | int32(buf[1])<<4 | int32(buf[2])>>4
	adcT := int32(buf[3])<<12 | int32(buf[4])<<4 | int32(buf[5])>>4
	adcH := int32(buf[6])<<8 | int32(buf[7])

	tFine, t := d.compensateTemp(adcT)
	d.tFine = tFine
	p := d.compensatePress(adcP)
	h := d.compensateHumidity(adcH)

	return t, p, h, nil
}

func (d *Device) compensateTemp(adcT int32) (tFine int32, tempC float64) {
	var1 := (float64(adcT)/16384.0 - float64(d.digT1)/1024.0) * float64(d.digT2)
	var2 := (float64(adcT)/131072.0 - float64(d.digT1)/8192.0)
	var2 = var2 * var2 * float64(d.digT3)
	tFineF := var1 + var2
	tFine = int32(tFineF)
	tempC = tFineF / 5120.0
	return tFine, tempC
}

func (d *Device) compensatePress(adcP int32) float64 {
	var1 := float64(d.tFine)/2.0 - 64000.0
	var2 := var1 * var1 * float64(d.digP6) / 32768.0
	var2 = var2 + var1*float64(d.digP5)*2.0
	var2 = var2/4.0 + float64(d.digP4)*65536.0
	var1 = (float64(d.digP3)*var1*var1/524288.0 + float64(d.digP2)*var1) / 524288.0
	var1 = (1.0 + var1/32768.0) * float64(d.digP1)
	if var1 == 0 {
		return 0
	}
	p := 1048576.0 - float64(adcP)
	p = (p - var2/4096.0) * 6250.0 / var1
	var1 = float64(d.digP9) * p * p / 2147483648.0
	var2 = p * float64(d.digP8) / 32768.0
	p = p + (var1+var2+float64(d.digP7))/16.0
	return p
}

// compensateHumidity depends on tFine from the temperature of the same sample.
func (d *Device) compensateHumidity(adcH int32) float64 {
	h := float64(d.tFine) - 76800.0
	h = (float64(adcH) - (float64(d.digH4)*64.0 + float64(d.digH5)/16384.0*h)) *
		(float64(d.digH2) / 65536.0 * (1.0 + float64(d.digH6)/67108864.0*h*(1.0+float64(d.digH3)/67108864.0*h)))
	h = h * (1.0 - float64(d.digH1)*h/524288.0)
	if h > 100 {
		return 100
	}
	if h < 0 {
		return 0
	}
	return h
}
