package main

import (
	"os"

	"alignd/internal/alignctl"
)

func main() {
	os.Exit(alignctl.Main(os.Args[1:]))
}
