// Command autobind scans Go packages and prints the registrations a
// convention pass would produce for them.
//
// Usage:
//
//	autobind plan --selector default-interface --format yaml
//	autobind types --unexported
//
// Configuration is read from go.mod, //autobind: directives in generate.go
// and AUTOBIND_* environment variables; flags override all of them.
package main

import "os"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
