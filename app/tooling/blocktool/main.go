// This program provides support for inspecting pool files and mined block
// reports.
package main

import "github.com/ardanlabs/blockminer/app/tooling/blocktool/cmd"

func main() {
	cmd.Execute()
}
