// slidesync presents markdown decks in the terminal and refreshes them on save.
package main

import (
	"os"

	"github.com/hupe1980/slidesync/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
