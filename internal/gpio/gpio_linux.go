//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

type cdevLine struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
}

func openLine(chipName string, offset int) (line, error) {
	chip, err := gpiocdev.NewChip(chipName, gpiocdev.WithConsumer("rover-ng-oe"))
	if err != nil {
		return nil, fmt.Errorf("gpio: open %s: %w", chipName, err)
	}
	l, err := chip.RequestLine(offset, gpiocdev.AsOutput(1))
	if err != nil {
		_ = chip.Close()
		return nil, fmt.Errorf("gpio: request %s line %d: %w", chipName, offset, err)
	}
	return &cdevLine{chip: chip, line: l}, nil
}

func (c *cdevLine) SetValue(v int) error {
	return c.line.SetValue(v)
}

func (c *cdevLine) Close() error {
	err := c.line.Close()
	if c.chip != nil {
		_ = c.chip.Close()
		c.chip = nil
	}
	return err
}
