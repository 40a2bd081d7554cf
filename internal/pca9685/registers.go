package pca9685

// PCA9685 register map (datasheet rev. 4, section 7.3).
const (
	addrDefault = 0x40

	regMode1    = 0x00
	regLED0OnL  = 0x06
	regAllLEDOn = 0xFA
	regPrescale = 0xFE

	// MODE1 bits.
	mode1Restart = 0x80
	mode1AI      = 0x20
	mode1Sleep   = 0x10

	// Channels is the number of PWM outputs.
	Channels = 16

	// FullScale is the tick count of one PWM cycle. A count of exactly
	// FullScale sets the full-on/full-off bit of the slot.
	FullScale = 4096

	// DefaultPrescale is tuned for the motor drivers on this platform.
	DefaultPrescale = 200

	prescaleMin = 3

	slotLen = 4
)

// DefaultAddress is the 7-bit address with all address pins low.
func DefaultAddress() uint16 { return addrDefault }

// channelBase returns the LEDn_ON_L register of channel n. Callers must have
// range-checked n.
func channelBase(n int) byte {
	return byte(regLED0OnL + slotLen*n)
}
