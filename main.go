package main

import "github.com/ypb/phonebook/cmd"

func main() {
	cmd.Execute()
}
