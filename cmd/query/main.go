// Command query answers free-text questions about course schedules
// using the retrieval index built by the pipeline.
package main

import (
	"fmt"
	"os"

	"uba-horarios/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
