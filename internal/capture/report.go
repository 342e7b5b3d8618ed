package capture

import (
	"fmt"
	"strings"
	"time"

	"github.com/BirchJD/RPi-433MHz/internal/pulse"
)

const (
	// RejectedMarker replaces the data sections when timing was unusable.
	RejectedMarker = "! BAD DATA REJECTED !"

	// DefaultSignatureSize is the number of leading bytes shown as the signature.
	DefaultSignatureSize = 4

	hexPerLine  = 26
	bytePerLine = 19
	wordPerLine = 20

	timestampFormat = "2006-01-02 15:04:05"
)

// Report renders the diagnostic block for one analysed window. The block
// always ends with a blank separator.
func Report(at time.Time, a *pulse.Analysis, signatureSize int) string {
	var b strings.Builder

	b.WriteString(at.Format(timestampFormat) + "\n")
	fmt.Fprintf(&b, "DATA SIZE: %d ", a.Events)
	fmt.Fprintf(&b, "MIN LOW PERIOD: [%d] %f MIN HIGH PERIOD: [%d] %f\n",
		a.MinLowSeq, a.MinLow.Seconds(), a.MinHighSeq, a.MinHigh.Seconds())

	if !a.Decoded {
		b.WriteString(RejectedMarker)
		b.WriteString("\n\n\n")
		return b.String()
	}

	b.WriteString("\nBINARY DATA:\n")
	b.WriteString(a.Binary)

	b.WriteString("\n\nHEX DATA:\n")
	writeHex(&b, a.Bytes)

	b.WriteString("\n\nALT HEX DATA:\n")
	writeHex(&b, a.AltBytes)

	sig := a.AltBytes
	if len(sig) > signatureSize {
		sig = sig[:signatureSize]
	}
	b.WriteString("\n\nRX SIGNATURE: ")
	for _, v := range sig {
		fmt.Fprintf(&b, "%02X ", v)
	}

	b.WriteString("\n\nBYTE DATA:\n")
	for i, v := range a.AltBytes {
		fmt.Fprintf(&b, "%3d ", v)
		if (i+1)%bytePerLine == 0 {
			b.WriteString("\n")
		}
	}

	b.WriteString("\n\nWORD DATA OFFSET 0:\n")
	writeWords(&b, a.AltBytes, 0)

	b.WriteString("\n\nWORD DATA OFFSET 1:\n")
	writeWords(&b, a.AltBytes, 1)

	b.WriteString("\n\nCHARACTER DATA:\n")
	b.WriteString(Printable(a.AltBytes))

	b.WriteString("\n\n\n")
	return b.String()
}

func writeHex(b *strings.Builder, data []byte) {
	for i, v := range data {
		fmt.Fprintf(b, "%02X ", v)
		if (i+1)%hexPerLine == 0 {
			b.WriteString("\n")
		}
	}
}

// writeWords prints big-endian 16 bit words. With offset 1 the first byte
// is printed on its own and pairing starts at the second byte.
func writeWords(b *strings.Builder, data []byte, offset int) {
	var word int
	for i, v := range data {
		if i%2 == offset {
			word = int(v)
		} else {
			word = word<<8 | int(v)
			fmt.Fprintf(b, "%6d ", word)
		}
		if (i+1)%wordPerLine == 0 {
			b.WriteString("\n")
		}
	}
}

// Printable renders data as ASCII with non-printable bytes shown as '.'.
func Printable(data []byte) string {
	out := make([]byte, len(data))
	for i, v := range data {
		if v >= 0x20 && v < 0x7F {
			out[i] = v
		} else {
			out[i] = '.'
		}
	}
	return string(out)
}
