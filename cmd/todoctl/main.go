// Command todoctl is the operator CLI for a todosync data directory. It
// mints access tokens, seeds fixtures and inspects statistics without going
// through the HTTP API.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
