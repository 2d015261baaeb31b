package main

import "github.com/diegovalduran/productloader/cmd"

func main() {
	cmd.Execute()
}
