package main

import "github.com/anupcshan/romgen/cmd/romgen/cmd"

func main() {
	cmd.Execute()
}
