// Command raml2go generates Go server code from RAML documents.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/mark3labs/raml2go/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		if errors.Is(err, cli.ErrUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
