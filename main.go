package main

import "github.com/replkv/rkv/cmd"

func main() {
	cmd.Execute()
}
