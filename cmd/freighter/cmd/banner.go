package cmd

import (
	"fmt"
)

const banner = `
  ______        _       _     _
 |  ____|      (_)     | |   | |
 | |__ _ __ ___ _  __ _| |__ | |_ ___ _ __
 |  __| '__/ _ \ |/ _` + "`" + ` | '_ \| __/ _ \ '__|
 | |  | | |  __/ | (_| | | | | ||  __/ |
 |_|  |_|  \___|_|\__, |_| |_|\__\___|_|
                   __/ |
                  |___/
`

func printBanner() {
	fmt.Printf("\x1b[34m%s\x1b[0m", banner)
	fmt.Printf("\x1b[32m  Wallet Credential Manager - Version %s\x1b[0m\n\n", Version)
}
