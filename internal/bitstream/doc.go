// Package bitstream packs decoded bits into bytes, most significant bit first,
// after discarding a configurable number of leading start bits.
package bitstream
