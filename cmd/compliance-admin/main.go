package main

import "github.com/openbaseline/compliance/cmd/cli"

func main() {
	cli.Execute()
}
