package main

import (
	"github.com/DrSkyle/stackmint/cmd/stackmint/commands"
)

func main() {
	commands.Execute()
}
