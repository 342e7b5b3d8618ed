// Package transmit drives an output pin with the pulse-count encoding the
// receiver decodes. The line is keyed on for the start bits, then toggled
// once per bit and held one level period for a 0 and two for a 1.
package transmit
