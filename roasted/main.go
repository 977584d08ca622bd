package main

import "github.com/roasted-ledger/roasted/roasted/cmd"

func main() {
	cmd.Execute()
}
