package main

import "github.com/relloyd/salespipe/cmd"

func main() {
	cmd.Execute()
}
