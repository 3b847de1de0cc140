package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func requirePostIDArg(_ *cobra.Command, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("post id is required")
	}
	_, err := parsePostID(args[0])
	return err
}

func parsePostID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid post id %q", raw)
	}
	return id, nil
}
