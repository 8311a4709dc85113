package main

import "github.com/OpenTraceLab/OpenTraceRC/cmd/otrc/cmd"

func main() {
	cmd.Execute()
}
