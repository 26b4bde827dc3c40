// Command crpq rewrites conjunctive regular path queries over OWL 2 QL
// ontologies and translates the result to Cypher.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/crpq/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	cmd.SilenceErrors = true
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
