// Package conv appends numbers to byte slices without fmt or strconv, for
// log lines built on the MCU.
package conv

const hexDigits = "0123456789abcdef"

// AppendUint appends the base-10 form of n.
func AppendUint(dst []byte, n uint64) []byte {
	var tmp [20]byte
	i := len(tmp)
	for {
		i--
		tmp[i] = byte('0' + n%10)
		n /= 10
		if n == 0 {
			break
		}
	}
	return append(dst, tmp[i:]...)
}

// AppendInt appends the base-10 form of n, with a leading '-' if negative.
func AppendInt(dst []byte, n int64) []byte {
	if n < 0 {
		dst = append(dst, '-')
		return AppendUint(dst, uint64(-n))
	}
	return AppendUint(dst, uint64(n))
}

// AppendFixed3 appends f with exactly three decimals, rounded half up.
func AppendFixed3(dst []byte, f float64) []byte {
	if f != f {
		return append(dst, "NaN"...)
	}
	if f < 0 {
		dst = append(dst, '-')
		f = -f
	}
	if f >= 1e15 {
		return append(dst, "+Inf"...)
	}
	ip := uint64(f)
	frac := uint64((f-float64(ip))*1000 + 0.5)
	if frac >= 1000 {
		ip++
		frac -= 1000
	}
	dst = AppendUint(dst, ip)
	return append(dst, '.', byte('0'+frac/100), byte('0'+frac/10%10), byte('0'+frac%10))
}

// AppendHex8 appends b as two lowercase hex digits.
func AppendHex8(dst []byte, b byte) []byte {
	return append(dst, hexDigits[b>>4], hexDigits[b&0x0f])
}
