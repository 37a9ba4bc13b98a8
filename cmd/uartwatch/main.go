package main

import "github.com/atikulmunna/uartwatch/internal/cmd"

func main() {
	cmd.Execute()
}
