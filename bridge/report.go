package bridge

import (
	"bufio"
	"fmt"
	"io"

	"github.com/arloliu/go-plcbridge/station"
)

// WriteStatus writes the first digital input and output of every station to w.
//
//	Station 0:
//	Button: 1	Lamp: 0
func (b *Bridge) WriteStatus(w io.Writer) error {
	bw := bufio.NewWriter(w)

	for i := range b.store.Len() {
		fmt.Fprintf(bw, "\nStation %d:\n", i)
		fmt.Fprintf(bw, "Button: %d\tLamp: %d\n",
			b.store.ReadScalar(i, station.DigitalIn, 0),
			b.store.ReadScalar(i, station.DigitalOut, 0),
		)
	}

	return bw.Flush()
}

// DescribeRoster writes the addresses and simulation ports of every station to w.
func (b *Bridge) DescribeRoster(w io.Writer) error {
	return DescribeRoster(w, b.cfg.Roster)
}

var classTitles = map[station.IOClass]string{
	station.AnalogIn:   "AnalogIn",
	station.AnalogOut:  "AnalogOut",
	station.DigitalIn:  "DigitalIn",
	station.DigitalOut: "DigitalOut",
}

// DescribeRoster writes the addresses and simulation ports of every station of roster to w.
func DescribeRoster(w io.Writer, roster station.Roster) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, "STATIONS INFO:")
	for i, info := range roster {
		fmt.Fprintf(bw, "\nStation %d:\n", i)
		fmt.Fprintf(bw, "ip: %s\n", info.Address)

		for _, class := range station.IOClasses {
			for j, port := range info.Ports(class) {
				fmt.Fprintf(bw, "%s %d: %d\n", classTitles[class], j, port)
			}
		}
	}
	fmt.Fprintln(bw)

	return bw.Flush()
}
