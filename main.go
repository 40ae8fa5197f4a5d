package main

import (
	"fmt"
	"os"

	"seostrategy-go/internal/cli"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "CRITICAL ERROR: application panic recovered: %v\n", r)
			fmt.Fprintln(os.Stderr, "Please check the logs for more details and report this issue.")
			os.Exit(1)
		}
	}()

	os.Exit(cli.Execute())
}
