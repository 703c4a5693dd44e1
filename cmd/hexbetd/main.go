package main

import (
	"fmt"
	"os"

	"hexbet/cmd/hexbetd/cmd"
)

func main() {
	if err := cmd.NewRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
