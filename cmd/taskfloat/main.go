package main

import "github.com/sandeepkv93/taskfloat/internal/cli"

func main() {
	cli.Execute()
}
