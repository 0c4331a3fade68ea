// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/mthds/mthds/cmd/mthds"

func main() {
	cmd.Execute()
}
