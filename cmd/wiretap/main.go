package main

import "github.com/wiretap-proxy/wiretap/proxy/cmd"

func main() {
	cmd.Execute()
}
