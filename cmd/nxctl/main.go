package main

import "github.com/fbuehrmann/netxms/internal/cli"

func main() {
	cli.Execute()
}
