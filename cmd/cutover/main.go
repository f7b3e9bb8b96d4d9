// Command cutover runs the cloud-migration planning simulator.
package main

import "github.com/berth-dev/cutover/internal/cli"

func main() {
	cli.Execute()
}
