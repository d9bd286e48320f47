package main

import (
	"fmt"
	"os"

	"github.com/penwyp/go-calltime/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
