package main

import "github.com/oshokin/sandbox-version-manager/cmd/aztec-sandbox/cmd"

func main() {
	cmd.Execute()
}
