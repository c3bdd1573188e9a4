// The main package for the automuseums-gpx executable.
package main

import (
	"github.com/JakeFAU/automuseums-gpx/cmd"
)

func main() {
	cmd.Execute()
}
