// Package namehash recovers member names that containers store only as
// numeric hashes, by hashing known candidate names and comparing.
package namehash

// Func hashes a name.
type Func func(name string) uint32

// crcTable is the MSB-first CRC table for polynomial 0x04C11DB7.
var crcTable [256]uint32

func init() {
	const poly = 0x04C11DB7
	for i := range crcTable {
		crc := uint32(i) << 24 //nolint:gosec // i < 256
		for range 8 {
			if crc&0x80000000 != 0 {
				crc = crc<<1 ^ poly
			} else {
				crc <<= 1
			}
		}
		crcTable[i] = crc
	}
}

// HashA is the table-driven CRC used by TAB directories. It starts from zero and
// applies no final XOR, so it differs from the common reflected CRC-32.
func HashA(name string) uint32 {
	return UpdateA(0, name)
}

// UpdateA continues a HashA computation with more bytes.
func UpdateA(crc uint32, s string) uint32 {
	for i := 0; i < len(s); i++ {
		crc = crc<<8 ^ crcTable[byte(crc>>24)^s[i]]
	}
	return crc
}

// HashB is the multiplicative string hash used by CLU indices.
func HashB(name string) uint32 {
	return UpdateB(0, name)
}

// UpdateB continues a HashB computation with more bytes.
func UpdateB(h uint32, s string) uint32 {
	for i := 0; i < len(s); i++ {
		h += (h << 7) + (h << 1) + uint32(s[i])
	}
	return h
}
