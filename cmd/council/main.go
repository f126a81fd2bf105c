package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
)

func main() {
	// Parse with custom exit handler to enforce proper exit codes:
	// 0 = success, 1 = run error, 2 = validation/usage error
	ctx := kong.Parse(&CLI,
		kong.Name("council"),
		kong.Description("Council - multi-model deliberation pipeline"),
		kong.UsageOnError(),
		kong.Vars{"version": version},
		kong.Exit(func(code int) {
			if code != 0 {
				os.Exit(2)
			}
			os.Exit(0)
		}),
	)

	err := ctx.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
