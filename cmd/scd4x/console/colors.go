package console

import (
	"fmt"

	"github.com/fatih/color"
)

// Available ANSI colors
var (
	Yellow = color.New(color.FgYellow).SprintFunc()
	Red    = color.New(color.FgRed).SprintFunc()
	Green  = color.New(color.FgGreen).SprintFunc()
	White  = color.New(color.FgHiWhite).SprintFunc()
	Bold   = color.New(color.Bold).SprintFunc()
)

// CO2 renders a concentration colored by indoor air quality band.
func CO2(ppm uint16) string {
	s := fmt.Sprintf("%d ppm", ppm)
	switch {
	case ppm == 0:
		return White(s)
	case ppm < 1000:
		return Green(s)
	case ppm < 1500:
		return Yellow(s)
	}
	return Red(s)
}
