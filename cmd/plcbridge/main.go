// Command plcbridge bridges OpenPLC stations and a simulation peer over UDP.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
