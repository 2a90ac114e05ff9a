package main

import "github.com/mselser95/polymarket-copytrader/cmd"

func main() {
	cmd.Execute()
}
