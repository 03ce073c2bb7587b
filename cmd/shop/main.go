package main

import "github.com/Skotchmaster/phone_shop/internal/cli"

func main() {
	cli.Execute()
}
