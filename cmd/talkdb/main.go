// Command talkdb inspects and maintains the encrypted local stores of a
// chat client account.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/talkdb/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
