package main

import "github.com/freighterhq/freighter/cmd/freighter/cmd"

func main() {
	cmd.Execute()
}
