package main

import "github.com/vinnienasta1/ProITech-pub/cmd/invrecon/cmd"

func main() {
	cmd.Execute()
}
