package main

import (
	"github.com/walletgate/walletgate/internal/cli"
)

func main() {
	cli.Execute()
}
