package main

import "github.com/beeux/beectl/cmd"

func main() {
	cmd.Execute()
}
