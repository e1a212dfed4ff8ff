package main

import (
	"fmt"
	"os"
	"time"

	"relationships/cli"
)

func init() {
	// 服务端统一使用 UTC
	time.Local = time.UTC
}

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
