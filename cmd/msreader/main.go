// msreader is a thin example CLI exercising the library's public surface:
// it is not part of the library itself.
package main

import (
	"fmt"
	"os"

	"github.com/ChrisMcGann/msreader/cmd/msreader/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
