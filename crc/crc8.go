// Package crc computes the 8-bit checksums used by Sensirion sensors to
// protect every 16-bit word on the wire.
package crc

import (
	"sync"

	"github.com/sigurn/crc8"
)

// Sensirion parameters: x^8 + x^5 + x^4 + 1, no reflection, no final xor.
const (
	SensirionPoly   byte = 0x31
	SensirionInit   byte = 0xFF
	SensirionXorOut byte = 0x00
)

type params struct {
	poly, init, xorOut byte
}

var (
	tablesMx sync.Mutex
	tables   = map[params]*crc8.Table{}
)

var sensirionTable = table(SensirionPoly, SensirionInit, SensirionXorOut)

func table(poly, init, xorOut byte) *crc8.Table {
	key := params{poly: poly, init: init, xorOut: xorOut}
	tablesMx.Lock()
	defer tablesMx.Unlock()
	if t, ok := tables[key]; ok {
		return t
	}
	t := crc8.MakeTable(crc8.Params{
		Poly:   poly,
		Init:   init,
		RefIn:  false,
		RefOut: false,
		XorOut: xorOut,
	})
	tables[key] = t
	return t
}

// Checksum calculates a non-reflected CRC-8 of data with the given polynomial,
// initial register value and final xor.
func Checksum(data []byte, poly, init, xorOut byte) byte {
	return crc8.Checksum(data, table(poly, init, xorOut))
}

// Sensirion calculates the CRC-8 the sensor appends to each data word.
func Sensirion(data []byte) byte {
	return crc8.Checksum(data, sensirionTable)
}
