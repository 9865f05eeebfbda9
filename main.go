package main

import (
	"github.com/lhallee/ipsae/cmd"
)

func main() {
	cmd.Execute() // initialize cobra commands
}
