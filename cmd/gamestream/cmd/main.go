package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rebeljah/gamestream/streamclient"
)

func main() {
	if err := streamclient.NewCommand().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
