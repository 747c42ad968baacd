/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/apiprobe/apiprobe/cmd"

func main() {
	cmd.Execute()
}
