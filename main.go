package main

import "github.com/0xlemi/pentanote/cmd"

func main() {
	cmd.Execute()
}
