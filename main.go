package main

import (
	"github.com/0xERR0R/rrsigcheck/cmd"
)

func main() {
	cmd.Execute()
}
