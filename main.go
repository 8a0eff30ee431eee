package main

import "github.com/es1024/python-staged-programming/cmd"

func main() {
	cmd.Execute()
}
