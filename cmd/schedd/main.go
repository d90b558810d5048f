package main

import "github.com/UniqueNetwork/unique-chain-sub001/internal/cli"

func main() {
	cli.Execute()
}
