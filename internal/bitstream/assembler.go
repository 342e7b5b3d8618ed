package bitstream

// Assembler accumulates a bit stream into bytes.
type Assembler struct {
	startBits int // leading bits to discard
	skipped   int
	bits      int // bits accepted after the start bits
	data      []byte
}

// New returns an Assembler that drops the first startBits bits it is given.
func New(startBits int) *Assembler {
	if startBits < 0 {
		startBits = 0
	}
	return &Assembler{startBits: startBits}
}

// Push appends one bit. Any non-zero value is a 1.
func (a *Assembler) Push(bit byte) {
	if a.skipped < a.startBits {
		a.skipped++
		return
	}
	if a.bits%8 == 0 {
		a.data = append(a.data, 0)
	}
	last := len(a.data) - 1
	a.data[last] <<= 1
	if bit != 0 {
		a.data[last] |= 1
	}
	a.bits++
}

// PushN appends the same bit n times.
func (a *Assembler) PushN(bit byte, n int) {
	for i := 0; i < n; i++ {
		a.Push(bit)
	}
}

// Bits returns the number of bits accepted after the start bits.
func (a *Assembler) Bits() int {
	return a.bits
}

// Bytes returns a copy of the completed bytes. A trailing byte with fewer
// than 8 bits is not included.
func (a *Assembler) Bytes() []byte {
	n := a.bits / 8
	out := make([]byte, n)
	copy(out, a.data[:n])
	return out
}

// Reset discards all state, including the count of skipped start bits.
func (a *Assembler) Reset() {
	a.skipped = 0
	a.bits = 0
	a.data = a.data[:0]
}
