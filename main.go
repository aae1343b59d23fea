package main

import "github.com/winbridge/winbridge/cmd"

func main() {
	cmd.Execute()
}
