package main

import "github.com/oshokin/wherering/cmd/wherering-server/cmd"

func main() {
	cmd.Execute()
}
