package main

import "github.com/declanmills/pyboot/cmd/bootctl/cmd"

func main() {
	cmd.Execute()
}
