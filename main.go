package main

import "transfer-ledger/cmd"

func main() {
	cmd.Execute()
}
