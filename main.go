/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/mathtutor/apiserver/cmd"

func main() {
	cmd.Execute()
}
