// Command vscflc runs the VSCFL front-end over a single source file and
// reports diagnostics. Grounded on the teacher's cmd/funxy/main.go, trimmed
// to the panic-recovery wrapper around a single pipeline invocation — there
// is no embedded-bytecode dispatch, ext host build, or bytecode runner here,
// since code generation, linking, and a runtime are explicit Non-goals.
package main

import (
	"fmt"
	"os"

	"github.com/vscfl/vscfl/pkg/cli"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			if os.Getenv("DEBUG") == "1" {
				panic(r)
			}
			fmt.Fprintf(os.Stderr, "internal error: %v\n", r)
			fmt.Fprintln(os.Stderr, "this is a bug; please report it")
			os.Exit(1)
		}
	}()

	os.Exit(cli.Run(os.Args))
}
